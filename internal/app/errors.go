package service

import "errors"

// Sentinel errors of the derivation service.
var (
	// ErrDerivationUnavailable means a snapshot the derivation needs could
	// not be fetched; no partial or zero result is returned in its place.
	ErrDerivationUnavailable = errors.New("derivation unavailable")
	ErrNotStarted            = errors.New("service not started")
)
