package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goodtune/nighttime/internal/timewindow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Title != "🌚" {
		t.Errorf("expected default title, got %q", cfg.Title)
	}
	window, err := cfg.Window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	want := timewindow.New(timewindow.NewTimeOfDay(0, 30, 0), timewindow.NewTimeOfDay(10, 0, 0))
	if window != want {
		t.Errorf("expected window %s, got %s", want, window)
	}
	poll, err := cfg.PollDuration()
	if err != nil || poll != time.Minute {
		t.Errorf("expected 60s poll interval, got %v (%v)", poll, err)
	}
	if !cfg.RestoreOnExit {
		t.Error("expected restore_on_exit to default to true")
	}
	if cfg.Display.Driver != "auto" {
		t.Errorf("expected auto display driver, got %q", cfg.Display.Driver)
	}
	if cfg.Storage.Type != "bolt" || cfg.Storage.HistoryRetentionDays != 30 {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Storage.Redis.KeyPrefix != "nighttime" {
		t.Errorf("expected redis key prefix nighttime, got %q", cfg.Storage.Redis.KeyPrefix)
	}
	if cfg.Control.Addr() != "127.0.0.1:9797" {
		t.Errorf("expected control addr 127.0.0.1:9797, got %s", cfg.Control.Addr())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
title: night
night:
  start: "22:00"
  end: "07:00"
poll_interval: 15s
restore_on_exit: false
display:
  driver: memory
storage:
  type: none
control:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Title != "night" {
		t.Errorf("expected title night, got %q", cfg.Title)
	}
	window, _ := cfg.Window()
	if window.String() != "22:00-07:00" {
		t.Errorf("expected window 22:00-07:00, got %s", window)
	}
	if poll, _ := cfg.PollDuration(); poll != 15*time.Second {
		t.Errorf("expected 15s poll interval, got %v", poll)
	}
	if cfg.RestoreOnExit {
		t.Error("expected restore_on_exit false")
	}
	if cfg.Storage.Type != "none" || cfg.Control.Enabled {
		t.Errorf("unexpected storage/control: %+v %+v", cfg.Storage, cfg.Control)
	}
	if cfg.Path != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NIGHTTIME_NIGHT_START", "21:15")
	t.Setenv("NIGHTTIME_CONTROL_PORT", "9898")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Night.Start != "21:15" {
		t.Errorf("expected env start 21:15, got %q", cfg.Night.Start)
	}
	if cfg.Control.Port != 9898 {
		t.Errorf("expected env control port 9898, got %d", cfg.Control.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad start", "night:\n  start: \"25:00\"\n", "window start"},
		{"bad end", "night:\n  end: later\n", "window end"},
		{"zero poll", "poll_interval: 0s\n", "poll_interval must be positive"},
		{"negative poll", "poll_interval: -5s\n", "poll_interval must be positive"},
		{"garbage poll", "poll_interval: often\n", "invalid poll_interval"},
		{"unknown driver", "display:\n  driver: hologram\n", "unknown display driver"},
		{"command driver without commands", "display:\n  driver: command\n", "enable_command"},
		{"unknown storage", "storage:\n  type: etcd\n", "unknown storage type"},
		{"negative retention", "storage:\n  history_retention_days: -1\n", "history_retention_days"},
		{"bad control port", "control:\n  port: 70000\n", "invalid control port"},
		{"malformed yaml", "night: [\n", "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	written, err := WriteDefault(path)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if !written {
		t.Fatal("expected the default config to be written")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if cfg.Night.Start != "00:30" || cfg.Night.End != "10:00" {
		t.Errorf("unexpected written window: %+v", cfg.Night)
	}

	if err := os.WriteFile(path, []byte("title: mine\n"), 0644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	written, err = WriteDefault(path)
	if err != nil {
		t.Fatalf("write default again: %v", err)
	}
	if written {
		t.Error("existing config must not be replaced")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "title: mine\n" {
		t.Errorf("existing config was modified: %q", data)
	}
}

func TestDefaultPath(t *testing.T) {
	if filepath.Base(DefaultPath(false)) != "config.yaml" {
		t.Errorf("unexpected default path %s", DefaultPath(false))
	}
	if filepath.Base(DefaultPath(true)) != "config.debug.yaml" {
		t.Errorf("unexpected debug path %s", DefaultPath(true))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.PollInterval != "60s" || !cfg.RestoreOnExit {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Control.Port != 9797 {
		t.Errorf("expected control port 9797, got %d", cfg.Control.Port)
	}
}

func TestUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
night:
  start: "22:00"
  ends: "07:00"
pol_interval: 30s
storage:
  redis:
    host: redis.local
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	unknown, err := UnknownKeys(path)
	if err != nil {
		t.Fatalf("unknown keys: %v", err)
	}
	want := []string{"night.ends", "pol_interval"}
	if strings.Join(unknown, ",") != strings.Join(want, ",") {
		t.Errorf("expected unknown keys %v, got %v", want, unknown)
	}

	if _, err := UnknownKeys(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
