package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testOptions struct {
	Config string

	Port                string  `toml:"server.port" env:"SERVER_PORT"`
	QueueCapacity       int     `toml:"queue.capacity" env:"QUEUE_CAPACITY"`
	BufferMaxAgeSeconds float64 `toml:"buffer.max_age_seconds" env:"BUFFER_MAX_AGE_SECONDS"`
	Verbose             bool    `toml:"logging.verbose" env:"LOGGING_VERBOSE"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":9000"

[queue]
capacity = 2000

[buffer]
max_age_seconds = 7.5

[logging]
verbose = true
`)

	opts := &testOptions{Config: path, Port: ":8090", QueueCapacity: 10000}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.Port != ":9000" {
		t.Errorf("Port = %q, want :9000", opts.Port)
	}
	if opts.QueueCapacity != 2000 {
		t.Errorf("QueueCapacity = %d, want 2000", opts.QueueCapacity)
	}
	if opts.BufferMaxAgeSeconds != 7.5 {
		t.Errorf("BufferMaxAgeSeconds = %v, want 7.5", opts.BufferMaxAgeSeconds)
	}
	if !opts.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":9000"
`)
	t.Setenv("FRAMESYNC_SERVER_PORT", ":7070")
	t.Setenv("FRAMESYNC_QUEUE_CAPACITY", "555")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.Port != ":7070" {
		t.Errorf("Port = %q, want env value :7070", opts.Port)
	}
	if opts.QueueCapacity != 555 {
		t.Errorf("QueueCapacity = %d, want 555", opts.QueueCapacity)
	}
}

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	opts := &testOptions{Config: "/nonexistent/config.toml", Port: ":8090"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.Port != ":8090" {
		t.Errorf("Port = %q, want default :8090", opts.Port)
	}
}

func TestLoadConfigBadTOML(t *testing.T) {
	path := writeConfig(t, "not [valid toml")
	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err == nil {
		t.Error("LoadConfig accepted malformed TOML")
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"
format = "json"
marker = "warn"
api = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("cfg = %+v, want debug/json", cfg)
	}
	if cfg.Modules["marker"] != "warn" || cfg.Modules["api"] != "error" {
		t.Errorf("Modules = %v", cfg.Modules)
	}
}

func TestLoadLoggingConfigMissingFile(t *testing.T) {
	cfg := LoadLoggingConfig("/nonexistent/config.toml")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("defaults = %+v, want info/text", cfg)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Port", "port"},
		{"QueueCapacity", "queue-capacity"},
		{"BufferMaxAgeSeconds", "buffer-max-age-seconds"},
	}
	for _, tt := range tests {
		if got := fieldNameToFlag(tt.in); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
