package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Console.KlogPort != 9081 {
		t.Errorf("klog port = %d, want 9081", cfg.Console.KlogPort)
	}
	if cfg.Console.StatsPort != 1214 {
		t.Errorf("stats port = %d, want 1214", cfg.Console.StatsPort)
	}
	if cfg.Monitor.ReadTimeout != 20*time.Second {
		t.Errorf("read timeout = %v, want 20s", cfg.Monitor.ReadTimeout)
	}
	if cfg.Monitor.IdleAfter != 120*time.Second {
		t.Errorf("idle after = %v, want 120s", cfg.Monitor.IdleAfter)
	}
	if cfg.Monitor.ReconnectDelay != 10*time.Second {
		t.Errorf("reconnect delay = %v, want 10s", cfg.Monitor.ReconnectDelay)
	}
	if cfg.Stats.Interval != 10*time.Second {
		t.Errorf("stats interval = %v, want 10s", cfg.Stats.Interval)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
}

func TestLoadOverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `
console:
  host: "192.168.1.42"
monitor:
  idle_after: 60s
server:
  port: 9090
  auth_token: "hunter2"
stats:
  host_telemetry: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Console.Host != "192.168.1.42" {
		t.Errorf("host = %q", cfg.Console.Host)
	}
	if cfg.Monitor.IdleAfter != 60*time.Second {
		t.Errorf("idle after = %v, want 60s", cfg.Monitor.IdleAfter)
	}
	if cfg.Server.Port != 9090 || cfg.Server.AuthToken != "hunter2" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if !cfg.Stats.HostTelemetry {
		t.Error("host telemetry not enabled")
	}

	// Untouched sections keep their defaults.
	if cfg.Console.KlogPort != 9081 {
		t.Errorf("klog port = %d, want 9081", cfg.Console.KlogPort)
	}
	if cfg.Monitor.ReadTimeout != 20*time.Second {
		t.Errorf("read timeout = %v, want 20s", cfg.Monitor.ReadTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("console: [not a mapping"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestAddrHelpers(t *testing.T) {
	cfg := defaultConfig()
	cfg.Console.Host = "10.0.0.5"

	if got := cfg.KlogAddr(); got != "10.0.0.5:9081" {
		t.Errorf("KlogAddr() = %q", got)
	}
	if got := cfg.StatsURL(); got != "http://10.0.0.5:1214/" {
		t.Errorf("StatsURL() = %q", got)
	}
}
