// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Keys are flat snake_case names shared by the YAML file and the
//     STREETPASS_ environment variables.
//   - New returns the defaults; Load layers file and environment on top.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the snapshot provider: memory, sqlite or mongo.
	StoreDriver   string `koanf:"store_driver"`
	SQLiteDSN     string `koanf:"sqlite_dsn"`
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`

	// Timezone is the IANA zone of day boundaries and bucket labels.
	Timezone string `koanf:"timezone"`

	// Derivation parameters.
	LivenessTimeoutMS   int     `koanf:"liveness_timeout_ms"`
	OnlineLimit         int     `koanf:"online_limit"`
	EncounterWindowMS   int     `koanf:"encounter_window_ms"`
	EncounterDistanceM  float64 `koanf:"encounter_distance_m"`
	ActivityLimitHourly int     `koanf:"activity_limit_hourly"`
	ActivityLimitDaily  int     `koanf:"activity_limit_daily"`
	RecentLimit         int     `koanf:"recent_limit"`

	// Reverse geocoding of place names.
	GeocodeEnabled    bool   `koanf:"geocode_enabled"`
	GeocodeBaseURL    string `koanf:"geocode_base_url"`
	GeocodeUserAgent  string `koanf:"geocode_user_agent"`
	GeocodeLanguage   string `koanf:"geocode_language"`
	GeocodeTTLMS      int    `koanf:"geocode_ttl_ms"`
	GeocodeIntervalMS int    `koanf:"geocode_interval_ms"`
	GeocodeWorkers    int    `koanf:"geocode_workers"`
	GeocodeQueueSize  int    `koanf:"geocode_queue_size"`

	// RedisAddr enables the shared place store when set.
	RedisAddr string `koanf:"redis_addr"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         DriverMemory,
		SQLiteDSN:           "file:streetpass.db",
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "streetpass",
		Timezone:            "Asia/Tokyo",
		LivenessTimeoutMS:   300_000,
		OnlineLimit:         60,
		EncounterWindowMS:   300_000,
		EncounterDistanceM:  100,
		ActivityLimitHourly: 500,
		ActivityLimitDaily:  1500,
		RecentLimit:         20,
		GeocodeEnabled:      false,
		GeocodeBaseURL:      "https://nominatim.openstreetmap.org",
		GeocodeUserAgent:    "streetpass-engine/1.0",
		GeocodeLanguage:     "ja",
		GeocodeTTLMS:        86_400_000,
		GeocodeIntervalMS:   1000,
		GeocodeWorkers:      1,
		GeocodeQueueSize:    1024,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite && c.StoreDriver != DriverMongo:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == DriverSQLite && c.SQLiteDSN == "":
		return fmt.Errorf("%w: sqlite_dsn must not be empty", ErrInvalidConfig)
	case c.StoreDriver == DriverMongo && (c.MongoURI == "" || c.MongoDatabase == ""):
		return fmt.Errorf("%w: mongo_uri and mongo_database are required", ErrInvalidConfig)
	case c.LivenessTimeoutMS <= 0:
		return fmt.Errorf("%w: liveness_timeout_ms must be positive", ErrInvalidConfig)
	case c.EncounterWindowMS <= 0:
		return fmt.Errorf("%w: encounter_window_ms must be positive", ErrInvalidConfig)
	case c.EncounterDistanceM <= 0:
		return fmt.Errorf("%w: encounter_distance_m must be positive", ErrInvalidConfig)
	case c.OnlineLimit <= 0 || c.RecentLimit <= 0:
		return fmt.Errorf("%w: online_limit and recent_limit must be positive", ErrInvalidConfig)
	case c.GeocodeEnabled && c.GeocodeBaseURL == "":
		return fmt.Errorf("%w: geocode_base_url must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w %q: %w", ErrInvalidConfig, ErrUnknownTimezone, c.Timezone, err)
	}
	return loc, nil
}

// LivenessTimeout returns liveness_timeout_ms as a duration.
func (c *Config) LivenessTimeout() time.Duration { return ms(c.LivenessTimeoutMS) }

// EncounterWindow returns encounter_window_ms as a duration.
func (c *Config) EncounterWindow() time.Duration { return ms(c.EncounterWindowMS) }

// GeocodeTTL returns geocode_ttl_ms as a duration.
func (c *Config) GeocodeTTL() time.Duration { return ms(c.GeocodeTTLMS) }

// GeocodeInterval returns geocode_interval_ms as a duration.
func (c *Config) GeocodeInterval() time.Duration { return ms(c.GeocodeIntervalMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
