// Package seed generates synthetic presence, post, reaction and profile
// documents and loads them into a record store for local runs.
package seed

import (
	"fmt"
	"time"
)

// Default generation sizes.
const (
	DefaultProfiles  = 200
	DefaultPosts     = 400
	DefaultReactions = 600
	DefaultClusters  = 5
)

// Config holds configuration for one generation run.
type Config struct {
	Profiles  int           // Number of profiles; every profile reports one presence
	Posts     int           // Number of timeline posts
	Reactions int           // Number of emotion posts
	Clusters  int           // Number of places presences gather around
	Now       time.Time     // Reference instant timestamps are spread before
	Spread    time.Duration // Oldest content age
	Seed      uint64        // Random seed; equal seeds generate equal datasets
}

// DefaultConfig returns a config sized for a lively local dashboard.
func DefaultConfig() Config {
	return Config{
		Profiles:  DefaultProfiles,
		Posts:     DefaultPosts,
		Reactions: DefaultReactions,
		Clusters:  DefaultClusters,
		Now:       time.Now(),
		Spread:    30 * 24 * time.Hour,
		Seed:      1,
	}
}

// Validate reports an unusable config.
func (c Config) Validate() error {
	switch {
	case c.Profiles < 0 || c.Posts < 0 || c.Reactions < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidConfig)
	case c.Clusters < 1:
		return fmt.Errorf("%w: clusters must be at least 1", ErrInvalidConfig)
	case c.Spread <= 0:
		return fmt.Errorf("%w: spread must be positive", ErrInvalidConfig)
	case c.Now.IsZero():
		return fmt.Errorf("%w: now must be set", ErrInvalidConfig)
	}
	return nil
}
