package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "./citadel-data" {
		t.Errorf("DataDir = %q, want ./citadel-data", cfg.DataDir)
	}
	if cfg.LogFormat != "text" || cfg.LogLevel != "info" {
		t.Errorf("log defaults = %q/%q, want text/info", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.ThreatTick != 2*time.Second {
		t.Errorf("ThreatTick = %v, want 2s", cfg.ThreatTick)
	}
	if cfg.DemoSeed {
		t.Error("DemoSeed default = true, want false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CITADEL_DATA_DIR", "/var/lib/citadel")
	t.Setenv("CITADEL_LOG_FORMAT", "json")
	t.Setenv("CITADEL_DEMO_SEED", "true")
	t.Setenv("CITADEL_THREAT_TICK", "500ms")

	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/var/lib/citadel" {
		t.Errorf("DataDir = %q, want /var/lib/citadel", cfg.DataDir)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if !cfg.DemoSeed {
		t.Error("DemoSeed = false, want true")
	}
	if cfg.ThreatTick != 500*time.Millisecond {
		t.Errorf("ThreatTick = %v, want 500ms", cfg.ThreatTick)
	}
}

func TestLoadRejectsNonPositiveTick(t *testing.T) {
	t.Setenv("CITADEL_THREAT_TICK", "0s")

	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := Load(v); err == nil {
		t.Error("Load() with zero tick: want error, got nil")
	}
}

func TestLoadRejectsEmptyDataDir(t *testing.T) {
	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	v.Set(KeyDataDir, "")
	if _, err := Load(v); err == nil {
		t.Error("Load() with empty data dir: want error, got nil")
	}
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	if _, err := New("/does/not/exist.yaml"); err == nil {
		t.Error("New() with missing config file: want error, got nil")
	}
}
