package model

// PlaceLookup asks for the place name of a rounded coordinate.
type PlaceLookup struct {
	Key string // coordinate fingerprint, see geocode.Key
	Lat float64
	Lng float64
}
