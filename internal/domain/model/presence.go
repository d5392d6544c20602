// Package model contains domain models passed between layers.
package model

import "time"

// RawRecord is one document as returned by a snapshot provider. Field values
// keep whatever encoding the store used; normalization resolves them.
type RawRecord struct {
	ID     string
	Fields map[string]any
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinates are inside their ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// ProfileSnapshot is the denormalized identity copy carried by a presence.
// The identity record stays authoritative.
type ProfileSnapshot struct {
	ProfileID   string
	DisplayName string
	Avatar      string
	Color       *int64
}

// PresenceRecord is a liveness report from one device session.
type PresenceRecord struct {
	ID        string
	Timestamp int64 // epoch milliseconds
	Location  *Location
	Active    bool
	Profile   ProfileSnapshot
	Message   string
}

// Time returns the timestamp as a time.Time in UTC.
func (p PresenceRecord) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}
