// Package config loads the procflow configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort        = 9091
	DefaultDatabaseURL = "file://./data"
	DefaultLogLevel    = "info"
	DefaultServiceName = "procflow"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TracingConfig holds the OpenTelemetry settings. The exporter itself is
// configured through the standard OTEL_EXPORTER_OTLP_* environment variables.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Config models the procflow YAML configuration file.
type Config struct {
	Server      ServerConfig  `yaml:"server"`
	DatabaseURL string        `yaml:"database_url"`
	LogLevel    string        `yaml:"log_level"`
	Tracing     TracingConfig `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:      ServerConfig{Port: DefaultPort},
		DatabaseURL: DefaultDatabaseURL,
		LogLevel:    DefaultLogLevel,
		Tracing:     TracingConfig{ServiceName: DefaultServiceName},
	}
}

// Load reads the configuration file at path on top of the defaults. An empty
// path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	return cfg, nil
}
