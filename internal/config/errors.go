package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the YAML file or environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrUnknownTimezone is joined with ErrInvalidConfig when the timezone
	// is not a known IANA zone.
	ErrUnknownTimezone = errors.New("unknown timezone")
)
