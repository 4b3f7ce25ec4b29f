// Package config reads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissing is wrapped by Require when a variable is unset or empty.
var ErrMissing = errors.New("config: missing required variable")

// Getenv returns the value of k, or d when k is unset or empty.
func Getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// Require returns the value of k or an error wrapping ErrMissing.
func Require(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissing, k)
	}
	return v, nil
}

// Int returns k parsed as an int, or d when unset or unparsable.
func Int(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Float returns k parsed as a float64, or d when unset or unparsable.
func Float(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

// Duration returns k parsed with time.ParseDuration, or d when unset or unparsable.
func Duration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}
