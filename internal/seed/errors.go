package seed

import "errors"

// Sentinel errors of the seeding tool.
var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrLoad          = errors.New("seed load failed")
)
