package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
func Validate(cfg *Config) error {
	var errs []error

	if len(cfg.Command) == 0 {
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: "a command to run is required",
		})
	}

	if cfg.PollInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "poll-interval",
			Message: "must be positive",
		})
	}

	if cfg.SampleInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "sample-interval",
			Message: "must be positive",
		})
	} else if cfg.SampleInterval < cfg.PollInterval {
		// Sampling coarser than rendering keeps signal traffic bounded.
		errs = append(errs, ValidationError{
			Field:   "sample-interval",
			Message: "must not be shorter than poll-interval",
		})
	}

	if cfg.TraceDepth < 0 {
		errs = append(errs, ValidationError{
			Field:   "trace-depth",
			Message: "must be zero or positive",
		})
	}

	if cfg.SetUID < -1 {
		errs = append(errs, ValidationError{
			Field:   "setuid",
			Message: "must be -1 or a valid user id",
		})
	}
	if cfg.SetGID < -1 {
		errs = append(errs, ValidationError{
			Field:   "setgid",
			Message: "must be -1 or a valid group id",
		})
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "log-format",
			Message: `must be "text" or "json"`,
		})
	}

	return errors.Join(errs...)
}
