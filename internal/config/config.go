// Package config loads the hexaglow YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Address is the controller's BLE address (MAC on Linux, CoreBluetooth
	// UUID on macOS).
	Address  string  `yaml:"address"`
	UUIDs    UUIDs   `yaml:"uuids"`
	Connect  Connect `yaml:"connect"`
	LogLevel string  `yaml:"log_level"`
}

// UUIDs identifies the control service and its characteristics.
type UUIDs struct {
	Service string `yaml:"service"`
	Write   string `yaml:"write"`
	Notify  string `yaml:"notify"`
}

// Connect holds connection/retry settings.
type Connect struct {
	TimeoutSeconds int `yaml:"timeout_seconds"` // per connect attempt
	Retries        int `yaml:"retries"`
	RetryDelayMS   int `yaml:"retry_delay_ms"` // backoff base
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hexaglow")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values. The UUIDs match
// MeRGBW/Fivemi firmware; only the address has no usable default.
func Default() *Config {
	return &Config{
		UUIDs: UUIDs{
			Service: "0000fff0-0000-1000-8000-00805f9b34fb",
			Write:   "0000fff3-0000-1000-8000-00805f9b34fb",
			Notify:  "0000fff4-0000-1000-8000-00805f9b34fb",
		},
		Connect: Connect{
			TimeoutSeconds: 15,
			Retries:        5,
			RetryDelayMS:   700,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address must not be empty")
	}

	if c.UUIDs.Service == "" || c.UUIDs.Write == "" || c.UUIDs.Notify == "" {
		return fmt.Errorf("uuids.service, uuids.write and uuids.notify must not be empty")
	}

	if c.Connect.TimeoutSeconds <= 0 {
		return fmt.Errorf("connect.timeout_seconds must be > 0")
	}

	if c.Connect.Retries < 1 {
		return fmt.Errorf("connect.retries must be >= 1")
	}

	if c.Connect.RetryDelayMS < 0 {
		return fmt.Errorf("connect.retry_delay_ms must be >= 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Timeout returns the per-attempt connect timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Connect.TimeoutSeconds) * time.Second
}

// RetryDelay returns the backoff base as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Connect.RetryDelayMS) * time.Millisecond
}
