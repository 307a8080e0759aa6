package config

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is every invalid setting found.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Resolution < 0 {
		add("resolution", "must not be negative, got %d", c.Resolution)
	}
	if math.IsNaN(c.Minval) || math.IsNaN(c.Maxval) || c.Minval >= c.Maxval {
		add("minval", "must be below maxval, got [%v, %v]", c.Minval, c.Maxval)
	}
	if c.Unit < 0 {
		add("unit", "must not be negative, got %v", c.Unit)
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		add("sensitivity", "must be within [0, 1], got %v", c.Sensitivity)
	}
	if c.ScoreColumn < 0 {
		add("score_column", "must not be negative, got %d", c.ScoreColumn)
	}
	if c.Workers < 1 {
		add("workers", "must be at least 1, got %d", c.Workers)
	}
	if c.Tolerance < 0 {
		add("tolerance", "must not be negative, got %v", c.Tolerance)
	}
	if _, err := c.Logging(); err != nil {
		add("log", "%v", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
