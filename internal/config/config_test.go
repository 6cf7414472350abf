package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s != Defaults() {
		t.Fatalf("expected defaults for a missing config file, got %+v", s)
	}
}

func TestLoadOverlaysNonZeroFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("buffer_capacity: 64\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.BufferCapacity != 64 || s.LogLevel != "debug" {
		t.Fatalf("expected overridden fields applied, got %+v", s)
	}
	if s.PageSize != Defaults().PageSize {
		t.Fatalf("expected unset field to keep its default, got %d", s.PageSize)
	}
}

func TestLoadOverlaysCheckpointSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("checkpoint_schedule: \"@every 30s\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.CheckpointSchedule != "@every 30s" {
		t.Fatalf("expected checkpoint_schedule override applied, got %+v", s)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for malformed YAML")
	}
}
