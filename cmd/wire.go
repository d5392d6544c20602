package main

import (
	"context"
	"fmt"

	"github.com/okian/streetpass/internal/adapters/geocode"
	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/adapters/repository/mongo"
	"github.com/okian/streetpass/internal/adapters/repository/sqlite"
	app "github.com/okian/streetpass/internal/app"
	"github.com/okian/streetpass/internal/config"
	"github.com/okian/streetpass/pkg/logger"
)

// wiring holds the service options built from config and the resources
// that outlive the service.
type wiring struct {
	options []app.Option
	closers []func() error
}

func (w *wiring) close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		_ = w.closers[i]()
	}
}

// openProvider connects the snapshot provider selected by store_driver.
func openProvider(ctx context.Context, cfg *config.Config) (repository.Provider, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemory(), nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLiteDSN)
	case config.DriverMongo:
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// wire translates cfg into service options. The provider is closed by the
// service; the Redis client is closed by wiring.close.
func wire(ctx context.Context, cfg *config.Config, log logger.Logger) (*wiring, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	provider, err := openProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}

	w := &wiring{options: []app.Option{
		app.WithLogger(log),
		app.WithProvider(provider),
		app.WithLocation(loc),
		app.WithLivenessTimeout(cfg.LivenessTimeout()),
		app.WithOnlineLimit(cfg.OnlineLimit),
		app.WithEncounterWindow(cfg.EncounterWindow()),
		app.WithEncounterDistance(cfg.EncounterDistanceM),
		app.WithActivityLimits(cfg.ActivityLimitHourly, cfg.ActivityLimitDaily),
		app.WithRecentLimit(cfg.RecentLimit),
	}}

	if !cfg.GeocodeEnabled {
		return w, nil
	}
	w.options = append(w.options,
		app.WithGeocoder(geocode.NewNominatim(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent, cfg.GeocodeLanguage)),
		app.WithGeocodeTTL(cfg.GeocodeTTL()),
		app.WithGeocodeInterval(cfg.GeocodeInterval()),
		app.WithGeocodeWorkers(cfg.GeocodeWorkers),
		app.WithGeocodeQueueSize(cfg.GeocodeQueueSize),
	)
	if cfg.RedisAddr != "" {
		store, err := geocode.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			_ = provider.Close(ctx)
			return nil, fmt.Errorf("connecting place store: %w", err)
		}
		w.options = append(w.options, app.WithPlaceStore(store))
		w.closers = append(w.closers, store.Close)
	}
	return w, nil
}
