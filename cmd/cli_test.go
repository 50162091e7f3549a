package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
)

// offline points gtrack at a fresh home with sync disabled.
func offline(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("remote:\n  base_url: \"\"\nlog:\n  level: error\n"), 0o600))
	t.Setenv("GTRACK_HOME", home)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "gtrack %v: %s", args, out)
	return out
}

func TestCLIDayLifecycle(t *testing.T) {
	offline(t)
	today := timecalc.DateKey(time.Now())

	out := mustRun(t, "status")
	assert.Contains(t, out, "No active day")
	assert.Contains(t, out, "Sync: disabled")

	mustRun(t, "start")
	_, err := run(t, "start")
	assert.Equal(t, 1, exitCode(err), "starting twice is a precondition failure")

	mustRun(t, "job", "add", "Client", "A")
	mustRun(t, "task", "Client A", "code", "review")
	_, err = run(t, "in", "ghost")
	assert.Equal(t, 1, exitCode(err), "unknown job is a validation failure")

	out = mustRun(t, "status")
	assert.Contains(t, out, "Client A")
	assert.Contains(t, out, "- code review")

	out = mustRun(t, "summary")
	assert.Contains(t, out, "Summary for "+today+":")

	out = mustRun(t, "save")
	assert.Contains(t, out, "Tasks: code review")

	out = mustRun(t, "status")
	assert.Contains(t, out, "saved")

	out = mustRun(t, "history", "list")
	assert.Contains(t, out, today)

	out = mustRun(t, "history", "show", today)
	assert.Contains(t, out, "Client A")

	out = mustRun(t, "export", "--all", "--format", "json")
	var logs []model.DayLog
	require.NoError(t, json.Unmarshal([]byte(out), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, today, logs[0].Date)

	out = mustRun(t, "history", "edit", today, "--job", "Client A", "--rename", "Client B", "--time", "1:30")
	assert.Contains(t, out, "- Client B: 1 sessions, 1h 30m.")

	mustRun(t, "resume")
	out = mustRun(t, "status")
	assert.Contains(t, out, "Client B")
	mustRun(t, "cancel")

	_, err = run(t, "history", "clear")
	assert.Equal(t, 1, exitCode(err))
	mustRun(t, "history", "clear", "--yes")
	_, err = run(t, "history", "show", today)
	assert.Equal(t, 1, exitCode(err))
}

func TestCLIStatusReportsSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"data":{"status":"ok"}}`))
	}))
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("remote:\n  base_url: "+srv.URL+"\n  timeout: 1s\nlog:\n  level: error\n"), 0o600))
	t.Setenv("GTRACK_HOME", home)

	out := mustRun(t, "status")
	assert.Contains(t, out, "Sync: ok (0 queued)")

	srv.Close()
	out = mustRun(t, "status")
	assert.Contains(t, out, "Sync: unreachable (0 queued)")
}

func TestCLIOutboxNeedsRemote(t *testing.T) {
	offline(t)
	out := mustRun(t, "outbox", "list")
	assert.Contains(t, out, "Outbox is empty.")

	_, err := run(t, "outbox", "flush")
	assert.ErrorIs(t, err, errNoRemote)
}
