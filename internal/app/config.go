package app

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxTasks is the task arena capacity used when none is configured.
const DefaultMaxTasks = 4096

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // .hcl/.yaml file or directory
	Frames    int

	Workers  int // 0 means GOMAXPROCS
	MaxTasks int

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy with defaults filled in. All
// problems are reported at once.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.GraphPath == "" {
		errs = append(errs, errors.New("GraphPath is a required configuration field and cannot be empty"))
	}
	if cfg.Frames < 1 {
		errs = append(errs, fmt.Errorf("frames must be at least 1, got %d", cfg.Frames))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", cfg.Workers))
	}
	if cfg.MaxTasks == 0 {
		cfg.MaxTasks = DefaultMaxTasks
	}
	if cfg.MaxTasks < 0 {
		errs = append(errs, fmt.Errorf("max-tasks must be positive, got %d", cfg.MaxTasks))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck-port must be in [0, 65535], got %d", cfg.HealthcheckPort))
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, errors.New("invalid log-format: must be 'text' or 'json'"))
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}
