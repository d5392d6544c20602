// Package repository defines the record-snapshot provider contract, the
// dataset catalogue and an in-memory provider.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/normalize"
)

// Dataset names a logical collection of raw records.
type Dataset string

// Known datasets.
const (
	Presences Dataset = "streetpass_presences"
	Posts     Dataset = "timelinePosts"
	Reactions Dataset = "emotion_map_posts"
	Profiles  Dataset = "profiles"
)

// TimeEncoding tells how a dataset stores its timestamp field, so providers
// can translate a time bound into a native query.
type TimeEncoding int

const (
	// EpochMillis is a numeric epoch-millisecond field.
	EpochMillis TimeEncoding = iota
	// DateTime is a native date/time value.
	DateTime
)

// Spec describes one dataset.
type Spec struct {
	Name      Dataset
	TimeField string
	Encoding  TimeEncoding
}

var catalogue = map[Dataset]Spec{
	Presences: {Name: Presences, TimeField: normalize.PresenceTimeField, Encoding: EpochMillis},
	Posts:     {Name: Posts, TimeField: "createdAt", Encoding: DateTime},
	Reactions: {Name: Reactions, TimeField: "createdAt", Encoding: DateTime},
	Profiles:  {Name: Profiles, TimeField: "createdAt", Encoding: DateTime},
}

// Lookup returns the catalogue entry of d.
func Lookup(d Dataset) (Spec, error) {
	spec, ok := catalogue[d]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownDataset, d)
	}
	return spec, nil
}

// Datasets lists every catalogued dataset.
func Datasets() []Dataset {
	return []Dataset{Presences, Posts, Reactions, Profiles}
}

// Filter narrows a snapshot. The zero value returns the whole dataset in
// store order.
type Filter struct {
	// Since keeps records whose timestamp field is at or after it. Records
	// without a usable timestamp are excluded when Since is set.
	Since time.Time
	// Limit caps the number of records; zero means no cap.
	Limit int
	// Desc orders records by timestamp, newest first.
	Desc bool
}

// Validate reports a malformed filter.
func (f Filter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, f.Limit)
	}
	return nil
}

// Provider returns snapshots of raw records. Implementations honour Filter
// server-side; callers still re-validate through normalization.
type Provider interface {
	Fetch(ctx context.Context, dataset Dataset, filter Filter) ([]model.RawRecord, error)
	Close(ctx context.Context) error
}
