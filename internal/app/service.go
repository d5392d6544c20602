// Package service wires the snapshot provider, the derivation engine and the
// place-name pipeline behind the operations the HTTP API exposes.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/streetpass/internal/adapters/geocode"
	lookupqueue "github.com/okian/streetpass/internal/adapters/mq/queue"
	workerpool "github.com/okian/streetpass/internal/adapters/mq/worker"
	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/liveness"
	"github.com/okian/streetpass/internal/domain/proximity"
	"github.com/okian/streetpass/pkg/logger"
)

// Default service configuration constants.
const (
	defaultOnlineLimit         = 60
	defaultActivityLimitHourly = 500
	defaultActivityLimitDaily  = 1500
	defaultRecentLimit         = 20
	defaultRecentPerKind       = 10
	defaultGeocodeInterval     = time.Second
	defaultGeocodeWorkers      = 1
	defaultGeocodeQueueSize    = 1024
)

// Service implements the API dependencies of the presence dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	provider repository.Provider
	location *time.Location
	clock    func() time.Time

	// Derivation parameters
	livenessTimeout     time.Duration
	onlineLimit         int
	encounterWindow     time.Duration
	encounterDistance   float64
	activityLimitHourly int
	activityLimitDaily  int
	recentLimit         int

	// Place names
	upstream         geocode.Lookuper
	placeStore       geocode.Store
	geocodeTTL       time.Duration
	geocodeInterval  time.Duration
	geocodeWorkers   int
	geocodeQueueSize int
	resolver         *geocode.Resolver
	cache            *geocode.Cache
	lookups          *lookupqueue.InMemoryQueue
	workers          *workerpool.Pool

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProvider sets the record-snapshot provider.
func WithProvider(p repository.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithLocation sets the zone used for day boundaries and bucket labels.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides the reference clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLivenessTimeout sets the staleness after which a presence is offline.
func WithLivenessTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.livenessTimeout = d
		}
	}
}

// WithOnlineLimit caps the online list.
func WithOnlineLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.onlineLimit = n
		}
	}
}

// WithEncounterWindow sets the maximum time between two encounter reports.
func WithEncounterWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.encounterWindow = d
		}
	}
}

// WithEncounterDistance sets the maximum encounter distance in meters.
func WithEncounterDistance(meters float64) Option {
	return func(s *Service) {
		if meters > 0 {
			s.encounterDistance = meters
		}
	}
}

// WithActivityLimits caps the snapshots fetched for hourly and daily ranges.
func WithActivityLimits(hourly, daily int) Option {
	return func(s *Service) {
		if hourly > 0 {
			s.activityLimitHourly = hourly
		}
		if daily > 0 {
			s.activityLimitDaily = daily
		}
	}
}

// WithRecentLimit caps the recent activity feed.
func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// WithGeocoder enables place names resolved through upstream.
func WithGeocoder(upstream geocode.Lookuper) Option {
	return func(s *Service) {
		s.upstream = upstream
	}
}

// WithPlaceStore shares resolved places through store.
func WithPlaceStore(store geocode.Store) Option {
	return func(s *Service) {
		s.placeStore = store
	}
}

// WithGeocodeTTL sets how long places and failures stay cached.
func WithGeocodeTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.geocodeTTL = d
		}
	}
}

// WithGeocodeInterval sets the minimum spacing between upstream lookups.
func WithGeocodeInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.geocodeInterval = d
		}
	}
}

// WithGeocodeWorkers sets the number of lookup workers.
func WithGeocodeWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.geocodeWorkers = n
		}
	}
}

// WithGeocodeQueueSize sets the pending lookup capacity.
func WithGeocodeQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.geocodeQueueSize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		location:            time.UTC,
		clock:               time.Now,
		livenessTimeout:     liveness.DefaultTimeout,
		onlineLimit:         defaultOnlineLimit,
		encounterWindow:     proximity.DefaultWindow,
		encounterDistance:   proximity.DefaultDistanceMeters,
		activityLimitHourly: defaultActivityLimitHourly,
		activityLimitDaily:  defaultActivityLimitDaily,
		recentLimit:         defaultRecentLimit,
		geocodeTTL:          geocode.DefaultTTL,
		geocodeInterval:     defaultGeocodeInterval,
		geocodeWorkers:      defaultGeocodeWorkers,
		geocodeQueueSize:    defaultGeocodeQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		s.provider = repository.NewMemory()
	}
	return s
}

// Start builds the place-name pipeline and starts its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	s.provider = repository.Instrument(s.provider, s.logger)

	if s.upstream != nil {
		s.cache = geocode.NewCache(s.geocodeTTL, nil)
		s.lookups = lookupqueue.NewInMemoryQueue(lookupqueue.WithCapacity(s.geocodeQueueSize))
		s.resolver = geocode.NewResolver(s.cache, s.upstream,
			geocode.WithQueue(s.lookups),
			geocode.WithStore(s.placeStore),
			geocode.WithLogger(s.logger),
		)
		s.workers = workerpool.NewPool(s.geocodeWorkers, s.lookups, s.resolver, s.geocodeInterval, s.logger)

		// workers outlive the start request
		wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.workers.Start(wctx)
	}

	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "presence service started",
		logger.String("timezone", s.location.String()),
		logger.Duration("liveness_timeout", s.livenessTimeout),
		logger.Duration("encounter_window", s.encounterWindow),
		logger.Float64("encounter_distance_m", s.encounterDistance),
		logger.Bool("geocoding", s.resolver != nil),
	)
	return nil
}

// Stop shuts down the lookup workers and closes the provider.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.workers != nil {
		if err := s.workers.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "lookup workers did not stop cleanly", logger.Error(err))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.provider.Close(ctx); err != nil {
		s.logger.Warn(ctx, "closing provider failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "presence service stopped")
}

// Now returns the service reference clock.
func (s *Service) Now() time.Time { return s.clock() }

// Location returns the zone used for day boundaries.
func (s *Service) Location() *time.Location { return s.location }

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":             s.started,
		"timezone":            s.location.String(),
		"livenessTimeoutMs":   s.livenessTimeout.Milliseconds(),
		"encounterWindowMs":   s.encounterWindow.Milliseconds(),
		"encounterDistanceM":  s.encounterDistance,
		"onlineLimit":         s.onlineLimit,
		"geocodingEnabled":    s.upstream != nil,
		"geocodeWorkers":      0,
		"geocodeQueueLength":  0,
		"geocodeCacheEntries": 0,
	}
	if s.started {
		stats["uptimeSeconds"] = int64(s.clock().Sub(s.startedAt).Seconds())
	}
	if s.workers != nil {
		stats["geocodeWorkers"] = s.workers.Size()
	}
	if s.lookups != nil {
		stats["geocodeQueueLength"] = s.lookups.Len(ctx)
	}
	if s.cache != nil {
		stats["geocodeCacheEntries"] = s.cache.Len()
	}
	return stats
}
