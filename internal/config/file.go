package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file. Pointer fields distinguish
// "not set" from zero values so the file only overrides what it names.
type fileConfig struct {
	InputDir     *string `yaml:"input_dir"`
	Resolution   *string `yaml:"resolution"`
	FPS          *int    `yaml:"fps"`
	Threads      *int    `yaml:"threads"`
	Quality      *int    `yaml:"quality"`
	Preset       *string `yaml:"preset"`
	Encoder      *string `yaml:"encoder"`
	VaapiDevice  *string `yaml:"vaapi_device"`
	StallTimeout *string `yaml:"stall_timeout"`
	GracePeriod  *string `yaml:"grace_period"`
	MinFileSize  *int64  `yaml:"min_file_size"`
	LogFile      *string `yaml:"log_file"`
	HistoryDB    *string `yaml:"history_db"`
	MetricsAddr  *string `yaml:"metrics_addr"`
}

// LoadFile overlays cfg with the settings named in the YAML file at path.
// Durations use Go syntax ("90s", "5m"). CLI flags still take precedence
// because they are parsed after the file is applied.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.InputDir != nil {
		cfg.InputDir = NormalizeDirArg(*fc.InputDir)
	}
	if fc.Resolution != nil {
		cfg.Resolution = Resolution(*fc.Resolution)
	}
	if fc.FPS != nil {
		cfg.FPS = *fc.FPS
	}
	if fc.Threads != nil {
		cfg.Threads = *fc.Threads
	}
	if fc.Quality != nil {
		cfg.Quality = *fc.Quality
	}
	if fc.Preset != nil {
		cfg.Preset = *fc.Preset
	}
	if fc.Encoder != nil {
		cfg.Encoder = Encoder(*fc.Encoder)
	}
	if fc.VaapiDevice != nil {
		cfg.VaapiDevice = *fc.VaapiDevice
	}
	if fc.StallTimeout != nil {
		d, err := time.ParseDuration(*fc.StallTimeout)
		if err != nil {
			return fmt.Errorf("invalid stall_timeout %q: %w", *fc.StallTimeout, err)
		}
		cfg.StallTimeout = d
	}
	if fc.GracePeriod != nil {
		d, err := time.ParseDuration(*fc.GracePeriod)
		if err != nil {
			return fmt.Errorf("invalid grace_period %q: %w", *fc.GracePeriod, err)
		}
		cfg.GracePeriod = d
	}
	if fc.MinFileSize != nil {
		cfg.MinFileSize = *fc.MinFileSize
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	if fc.HistoryDB != nil {
		cfg.HistoryDB = *fc.HistoryDB
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	return nil
}
