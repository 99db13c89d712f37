package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownScope  = errors.New("unknown baseline scope")
	ErrUnknownScorer = errors.New("unknown scorer")
	ErrZeroWeights   = errors.New("weights sum to zero")
	ErrInvalidWeight = errors.New("weight must be finite and non-negative")
	ErrNoMetrics     = errors.New("no ranking metrics requested")
)

// ConfigurationError signals a programming mistake in the caller's request:
// an unknown metric, scope or scorer, or a weight map that sums to zero.
// It is the only error class the scoring core surfaces; data problems are
// resolved locally with neutral defaults.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("configuration error: %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(field, value string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Err: err}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
