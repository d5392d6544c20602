package repository

import "errors"

// Sentinel errors returned by snapshot providers.
var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrFetch          = errors.New("snapshot fetch failed")
	ErrInvalidLimit   = errors.New("invalid snapshot limit")
)
