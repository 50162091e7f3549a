package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for gtrack, stored in
// ~/.gtrack/config.yaml.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Outbox  OutboxConfig  `yaml:"outbox"`
	Tracker TrackerConfig `yaml:"tracker"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the local key/value backend.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend"`
	// Dir holds the data files. Empty means the gtrack home directory.
	Dir string `yaml:"dir"`
}

// RemoteConfig points at the sync API. An empty BaseURL disables sync.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type OutboxConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type TrackerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// ServerConfig configures `gtrack serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// DB is the SQLite file of the reference server. Empty means
	// server.db in the gtrack home directory.
	DB string `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DefaultBackend       = "file"
	DefaultBaseURL       = "http://localhost:4000/api/v1"
	DefaultTimeout       = 10 * time.Second
	DefaultFlushInterval = time.Minute
	DefaultTickInterval  = time.Second
	DefaultServerAddr    = ":4000"
	DefaultLogLevel      = "warn"

	fileName = "config.yaml"
)

func defaultConfig() Config {
	return Config{
		Storage: StorageConfig{Backend: DefaultBackend},
		Remote:  RemoteConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Outbox:  OutboxConfig{FlushInterval: DefaultFlushInterval},
		Tracker: TrackerConfig{TickInterval: DefaultTickInterval},
		Server:  ServerConfig{Addr: DefaultServerAddr},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# gtrack configuration: ~/.gtrack/config.yaml
#
# All settings are optional; missing values fall back to the defaults shown.

storage:
  # Local store: "file" keeps one JSON document per key, "sqlite" keeps
  # everything in gtrack.db.
  backend: file
  # Data directory. Empty uses the directory holding this file.
  dir: ""

remote:
  # Sync API. Set to "" to work offline only.
  base_url: http://localhost:4000/api/v1
  # Bearer token sent with every request, if the server wants one.
  token: ""
  timeout: 10s

outbox:
  # How often "gtrack watch" retries queued uploads.
  flush_interval: 1m

tracker:
  # Idle accounting interval of "gtrack watch".
  tick_interval: 1s

server:
  # Listen address and database of "gtrack serve".
  addr: ":4000"
  db: ""

log:
  # debug, info, warn or error. Logs go to stderr.
  level: warn
`

// Home returns the gtrack home directory: $GTRACK_HOME if set, else
// ~/.gtrack.
func Home() (string, error) {
	if dir := os.Getenv("GTRACK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".gtrack"), nil
}

// Load reads the config from the gtrack home directory, creating it with
// annotated defaults on first run.
func Load() (Config, error) {
	home, err := Home()
	if err != nil {
		return defaultConfig(), err
	}
	return LoadFrom(home)
}

// LoadFrom reads dir/config.yaml. Relative and empty paths in the result
// are resolved against dir.
func LoadFrom(dir string) (Config, error) {
	path := filepath.Join(dir, fileName)
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return cfg.resolve(dir), nil
	}
	if err != nil {
		return cfg.resolve(dir), fmt.Errorf("reading config file %s: %w", path, err)
	}

	// Decoding over the defaults keeps every value the file leaves out.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultConfig().resolve(dir), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	if err := cfg.validate(); err != nil {
		return defaultConfig().resolve(dir), fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg.resolve(dir), nil
}

func (c Config) resolve(dir string) Config {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	c.Storage.Dir = under(dir, c.Storage.Dir, "")
	c.Server.DB = under(dir, c.Server.DB, "server.db")
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = DefaultTimeout
	}
	if c.Outbox.FlushInterval <= 0 {
		c.Outbox.FlushInterval = DefaultFlushInterval
	}
	if c.Tracker.TickInterval <= 0 {
		c.Tracker.TickInterval = DefaultTickInterval
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	return c
}

func under(dir, path, fallback string) string {
	if path == "" {
		return filepath.Join(dir, fallback)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be \"file\" or \"sqlite\", got %q", c.Storage.Backend)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// LogLevel returns the configured slog level, warn when unset.
func (c Config) LogLevel() slog.Level {
	l, _ := c.level()
	return l
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
