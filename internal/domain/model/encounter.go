package model

// EncounterEvent pairs two presence records close in time and space.
// It is derived on every call and never stored.
type EncounterEvent struct {
	ID             string // sorted participant ids joined with "_"
	Participants   [2]PresenceRecord
	OccurredAt     int64 // later of the two timestamps, epoch milliseconds
	DistanceMeters *float64
	Midpoint       *Location
}
