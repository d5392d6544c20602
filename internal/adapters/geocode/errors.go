package geocode

import "errors"

// Sentinel errors of the reverse-geocoding collaborator.
var (
	ErrLookupFailed = errors.New("reverse geocoding failed")
	ErrNoPlace      = errors.New("no place name for coordinates")
	ErrCacheMiss    = errors.New("place cache miss")
)
