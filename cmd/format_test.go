package cmd

import (
	"testing"
	"time"

	"github.com/Tiliavir/ghosttrack/internal/model"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{30, "30s"},
		{59, "59s"},
		{60, "1m 0s"},
		{90, "1m 30s"},
		{3600, "1h 0m 0s"},
		{3661, "1h 1m 1s"},
		{7322, "2h 2m 2s"},
	}
	for _, tt := range tests {
		got := formatElapsed(tt.seconds)
		if got != tt.want {
			t.Errorf("formatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestCsvEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"with,comma", `"with,comma"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", "\"with\nnewline\""},
		{"with\rreturn", "\"with\rreturn\""},
		{"", ""},
	}
	for _, tt := range tests {
		got := csvEscape(tt.input)
		if got != tt.want {
			t.Errorf("csvEscape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseCorrection(t *testing.T) {
	now := time.Date(2026, 2, 27, 15, 0, 0, 0, time.Local)
	c, err := parseCorrection(" Idle ", "Client A", "10:30", now)
	if err != nil {
		t.Fatalf("parseCorrection: %v", err)
	}
	if c.From != model.IdleJob {
		t.Errorf("From = %q, want the idle pseudo-job", c.From)
	}
	if c.To != "Client A" {
		t.Errorf("To = %q, want %q", c.To, "Client A")
	}
	want := time.Date(2026, 2, 27, 10, 30, 0, 0, time.Local).UnixMilli()
	if c.At != want {
		t.Errorf("At = %d, want %d", c.At, want)
	}

	_, err = parseCorrection("A", "B", "10h30", now)
	if exitCode(err) != 1 {
		t.Errorf("bad --at should be a usage error, got %v", err)
	}
}

func TestInWeek(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.Local)
	logs := []model.DayLog{
		{Date: "2026-03-02"},
		{Date: "2026-03-01"},
		{Date: "2026-02-23"},
		{LogID: "2026-02-22"},
	}
	got := inWeek(logs, fri)
	if len(got) != 2 || got[0].Date != "2026-03-01" || got[1].Date != "2026-02-23" {
		t.Errorf("inWeek = %+v, want 2026-03-01 and 2026-02-23", got)
	}
}
