// Package config loads the YAML runtime configuration shared by the
// cmd/ drivers: which timecode definition to decode, the audio
// parameters, and where to write session logs. The compiled-in
// timecode catalog itself is never loaded from here — see
// timecode.FindDefinition.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of a driver's runtime configuration.
type Config struct {
	// Timecode is a catalog name, e.g. "serato_2a".
	Timecode string `yaml:"timecode"`

	// SampleRate is the capture device's sample rate, in Hz.
	SampleRate uint `yaml:"sample_rate"`

	// Speed is the nominal playback speed multiplier (1.0 for 33 1/3
	// RPM records played at 33 1/3).
	Speed float64 `yaml:"speed"`

	// Phono indicates a phono-level (not line-level) input, which
	// lowers the zero-crossing threshold.
	Phono bool `yaml:"phono"`

	// MonitorSize is the edge length of the diagnostic scope raster.
	// Zero disables the monitor.
	MonitorSize int `yaml:"monitor_size"`

	// SessionLogDir, if non-empty, enables a per-session position/
	// pitch log under this directory.
	SessionLogDir string `yaml:"session_log_dir"`

	// Device names a capture device, in whatever form the chosen
	// audio backend expects (e.g. a PortAudio device name). It is
	// loaded but not used: timecodescope always opens the default
	// input device.
	Device string `yaml:"device"`
}

// Default returns the configuration a fresh install should start
// from: 44.1kHz, nominal speed, line-level input, a modest monitor,
// no session log.
func Default() Config {
	return Config{
		Timecode:    "serato_2a",
		SampleRate:  44100,
		Speed:       1.0,
		Phono:       false,
		MonitorSize: 256,
	}
}

// Load reads and parses a YAML configuration file at path, starting
// from Default() so an incomplete file still yields sane values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}
