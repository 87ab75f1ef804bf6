// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment identifies the deployment environment a process is
// running under.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the top-level configuration for Taffy tooling: the
// streaming loader's cache bound, the chunked writer's default
// metadata, and the audio graph builder's default rates.
type Config struct {
	Environment Environment     `yaml:"environment"`
	Streaming   StreamingConfig `yaml:"streaming"`
	Writer      WriterConfig    `yaml:"writer"`
	Audio       AudioConfig     `yaml:"audio"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the fields an environment section may
// override.
type ConfigOverrides struct {
	Streaming *StreamingConfig `yaml:"streaming,omitempty"`
	Writer    *WriterConfig    `yaml:"writer,omitempty"`
	Audio     *AudioConfig     `yaml:"audio,omitempty"`
}

// StreamingConfig tunes [streaming.Loader].
type StreamingConfig struct {
	// CacheMaxBytes bounds the loader's payload cache. Zero selects
	// streaming.DefaultMaxCacheBytes.
	CacheMaxBytes int64 `yaml:"cache_max_bytes"`
}

// WriterConfig supplies defaults for [chunkwriter.Writer].
type WriterConfig struct {
	DefaultCreator string `yaml:"default_creator"`
}

// AudioConfig supplies defaults for [audiograph.Builder].
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	TickRate   uint32 `yaml:"tick_rate"`
}

// Default returns the configuration used before any file is loaded:
// a 48kHz/60Hz audio graph default and no cache bound override.
func Default() *Config {
	return &Config{
		Environment: Development,
		Streaming: StreamingConfig{
			CacheMaxBytes: 0,
		},
		Writer: WriterConfig{
			DefaultCreator: "taffy",
		},
		Audio: AudioConfig{
			SampleRate: 48000,
			TickRate:   60,
		},
	}
}

// Load reads the file named by TAFFY_CONFIG. There is no fallback
// discovery path; an unset variable is an error.
func Load() (*Config, error) {
	path := os.Getenv("TAFFY_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("config: TAFFY_CONFIG environment variable not set")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over [Default], then
// applies the section matching the loaded Environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Streaming != nil {
		if overrides.Streaming.CacheMaxBytes != 0 {
			c.Streaming.CacheMaxBytes = overrides.Streaming.CacheMaxBytes
		}
	}
	if overrides.Writer != nil {
		if overrides.Writer.DefaultCreator != "" {
			c.Writer.DefaultCreator = overrides.Writer.DefaultCreator
		}
	}
	if overrides.Audio != nil {
		if overrides.Audio.SampleRate != 0 {
			c.Audio.SampleRate = overrides.Audio.SampleRate
		}
		if overrides.Audio.TickRate != 0 {
			c.Audio.TickRate = overrides.Audio.TickRate
		}
	}
}
