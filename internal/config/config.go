// Package config holds daemon configuration: defaults, optional YAML file,
// and the TZ environment override.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds daemon configuration. Precedence, lowest to highest:
// struct defaults, YAML file, TZ environment variable, command-line flags.
type Config struct {
	DeviceName string `yaml:"device_name" default:"HomeAssistant-CTS"`
	LogLevel   string `yaml:"log_level" default:"info"`
	Adapter    string `yaml:"adapter"`
	Timezone   string `yaml:"timezone"`
}

// Default returns the configuration with struct defaults applied.
func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load returns the default configuration overlaid with the YAML file at
// path. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvironment overlays process-environment settings: a non-empty TZ
// variable overrides the configured timezone, matching the host convention.
func (c *Config) ApplyEnvironment() {
	if tz := os.Getenv("TZ"); tz != "" {
		c.Timezone = tz
	}
}

// ParseLevel maps the configured log level to a logrus level. Accepted
// values are debug, info, warning (or warn), and error.
func ParseLevel(level string) (logrus.Level, error) {
	switch level {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warning, or error)", level)
	}
}

// NewLogger creates a logger configured from the LogLevel field.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger, nil
}
