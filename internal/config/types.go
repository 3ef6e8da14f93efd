// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hartleyhq/smartrun/pkg/types"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is the effective smartrun configuration.
	Config struct {
		// Interpreter is the Python interpreter path or name; empty means
		// auto-detect on the PATH.
		Interpreter string `mapstructure:"interpreter"`
		// PipArgs are extra arguments for every pip install invocation.
		PipArgs []string `mapstructure:"pip_args"`
		// AuditLog is the persistent log file path.
		AuditLog string `mapstructure:"audit_log"`
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose"`
		// Install configures the dependency installer's retry policy.
		Install InstallConfig `mapstructure:"install"`
		// Server configures the action dispatch server.
		Server ServerConfig `mapstructure:"server"`
	}

	// InstallConfig is the installer retry policy.
	InstallConfig struct {
		// Attempts is the maximum installation tries per module.
		Attempts int `mapstructure:"attempts"`
		// DelaySeconds is the fixed pause between attempts.
		DelaySeconds int `mapstructure:"delay_seconds"`
	}

	// ServerConfig is the action dispatch server configuration.
	ServerConfig struct {
		// Port is the TCP port to listen on.
		Port int `mapstructure:"port"`
		// Database is the sqlite audit database path.
		Database string `mapstructure:"database"`
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		AuditLog: "smartrun.log",
		Install: InstallConfig{
			Attempts:     3,
			DelaySeconds: 2,
		},
		Server: ServerConfig{
			Port:     8080,
			Database: "smartrun.db",
		},
	}
}

// Attempts returns the retry attempt count as its value type.
func (c InstallConfig) AttemptCount() types.AttemptCount {
	return types.AttemptCount(c.Attempts)
}

// Delay returns the fixed retry pause as its value type.
func (c InstallConfig) Delay() types.RetryDelay {
	return types.RetryDelay(time.Duration(c.DelaySeconds) * time.Second)
}

// Validate checks constraints the CUE schema cannot enforce for values
// that arrived via environment variables or defaults.
func (c *Config) Validate() error {
	var fieldErrs []error

	if ok, errs := c.Install.AttemptCount().IsValid(); !ok {
		fieldErrs = append(fieldErrs, errs...)
	}
	if ok, errs := c.Install.Delay().IsValid(); !ok {
		fieldErrs = append(fieldErrs, errs...)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		fieldErrs = append(fieldErrs, fmt.Errorf("server.port %d out of range (1-65535)", c.Server.Port))
	}

	if len(fieldErrs) > 0 {
		return &InvalidConfigError{FieldErrors: fieldErrs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field errors (first: %v)", len(e.FieldErrors), e.FieldErrors[0])
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
