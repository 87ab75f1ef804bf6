// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.TickRate != 60 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Streaming.CacheMaxBytes != 0 {
		t.Fatalf("expected zero cache bound by default, got %d", cfg.Streaming.CacheMaxBytes)
	}
}

func TestLoadFileAppliesProductionOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taffy.yaml")
	contents := `
environment: production
production:
  streaming:
    cache_max_bytes: 104857600
  audio:
    sample_rate: 44100
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Streaming.CacheMaxBytes != 104857600 {
		t.Fatalf("cache_max_bytes = %d, want 104857600", cfg.Streaming.CacheMaxBytes)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("sample_rate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Audio.TickRate != 60 {
		t.Fatalf("tick_rate = %d, want unchanged default 60", cfg.Audio.TickRate)
	}
}

func TestLoadFailsWithoutEnvVar(t *testing.T) {
	t.Setenv("TAFFY_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected Load to fail when TAFFY_CONFIG is unset")
	}
}
