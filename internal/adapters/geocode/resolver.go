package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/pkg/logger"
	"github.com/okian/streetpass/pkg/metrics"
)

// Lookuper is the upstream reverse-geocoding call.
type Lookuper interface {
	Lookup(ctx context.Context, lat, lng float64) (string, error)
}

// Enqueuer hands lookups to background workers without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, l model.PlaceLookup) bool
}

// Resolver answers place queries from the cache and schedules misses for
// background resolution. Place never waits on the network.
type Resolver struct {
	cache    *Cache
	upstream Lookuper
	store    Store
	queue    Enqueuer
	log      logger.Logger
}

// NewResolver creates a resolver over cache and upstream.
func NewResolver(cache *Cache, upstream Lookuper, opts ...Option) *Resolver {
	r := &Resolver{
		cache:    cache,
		upstream: upstream,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("geocode")
	return r
}

// Place returns the cached place name for loc. A miss schedules a lookup and
// returns false; so do negative entries and lookups already in flight.
func (r *Resolver) Place(ctx context.Context, loc *model.Location) (string, bool) {
	if loc == nil {
		return "", false
	}
	key := Key(loc.Lat, loc.Lng)
	entry, state := r.cache.Acquire(key)
	switch state {
	case Resolved:
		if entry.Found {
			metrics.RecordGeocodeCache("hit")
		} else {
			metrics.RecordGeocodeCache("negative")
		}
		return entry.Place, entry.Found
	case InFlight:
		metrics.RecordGeocodeCache("inflight")
		return "", false
	}

	metrics.RecordGeocodeCache("miss")
	if r.queue == nil || !r.queue.Enqueue(ctx, model.PlaceLookup{Key: key, Lat: loc.Lat, Lng: loc.Lng}) {
		r.cache.Release(key)
	}
	return "", false
}

// Resolve completes an in-flight lookup: shared store first, then upstream.
// Upstream failures are cached as negative entries; cancellation releases
// the key so it is retried later.
func (r *Resolver) Resolve(ctx context.Context, l model.PlaceLookup) error {
	defer func() { metrics.UpdateGeocodeEntries(r.cache.Sweep()) }()

	if r.store != nil {
		place, err := r.store.Get(ctx, l.Key)
		if err == nil {
			r.cache.Resolve(l.Key, place)
			metrics.RecordGeocodeCache("shared")
			return nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			r.log.Warn(ctx, "shared place store read failed", logger.String("key", l.Key), logger.Error(err))
		}
	}

	start := time.Now()
	place, err := r.upstream.Lookup(ctx, l.Lat, l.Lng)
	ms := float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err == nil:
		metrics.RecordGeocodeLookup("found", ms)
	case errors.Is(err, ErrNoPlace):
		metrics.RecordGeocodeLookup("no_place", ms)
	case ctx.Err() != nil:
		r.cache.Release(l.Key)
		return err
	default:
		metrics.RecordGeocodeLookup("error", ms)
	}

	r.cache.Resolve(l.Key, place)
	if r.store != nil {
		if serr := r.store.Set(ctx, l.Key, place, r.cache.TTL()); serr != nil {
			r.log.Warn(ctx, "shared place store write failed", logger.String("key", l.Key), logger.Error(serr))
		}
	}
	r.log.Debug(ctx, "place resolved",
		logger.String("key", l.Key),
		logger.String("place", place),
		logger.Float64("latency_ms", ms))

	if err != nil && !errors.Is(err, ErrNoPlace) {
		return err
	}
	return nil
}
