package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/streetpass/internal/adapters/repository/mongo"
	"github.com/okian/streetpass/internal/adapters/repository/sqlite"
	"github.com/okian/streetpass/internal/config"
	"github.com/okian/streetpass/internal/seed"
	"github.com/okian/streetpass/pkg/logger"
)

const defaultTimeout = 5 * time.Minute

// store is a seed sink that can be closed.
type store interface {
	seed.Sink
	Close(ctx context.Context) error
}

func main() {
	defaults := seed.DefaultConfig()
	cfg := config.New()
	var (
		driver    = flag.String("driver", config.DriverSQLite, "Target store: sqlite or mongo")
		dsn       = flag.String("dsn", cfg.SQLiteDSN, "SQLite DSN")
		mongoURI  = flag.String("mongo-uri", cfg.MongoURI, "MongoDB connection URI")
		mongoDB   = flag.String("mongo-db", cfg.MongoDatabase, "MongoDB database")
		profiles  = flag.Int("profiles", defaults.Profiles, "Number of profiles, each with one presence")
		posts     = flag.Int("posts", defaults.Posts, "Number of timeline posts")
		reactions = flag.Int("reactions", defaults.Reactions, "Number of emotion posts")
		clusters  = flag.Int("clusters", defaults.Clusters, "Number of places presences gather around")
		spread    = flag.Duration("spread", defaults.Spread, "Age of the oldest post, reaction and profile")
		seedValue = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("seed")

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	data, err := seed.Generate(seed.Config{
		Profiles:  *profiles,
		Posts:     *posts,
		Reactions: *reactions,
		Clusters:  *clusters,
		Now:       time.Now(),
		Spread:    *spread,
		Seed:      *seedValue,
	})
	if err != nil {
		log.Error(ctx, "generation failed", logger.Error(err))
		os.Exit(1)
	}

	var target store
	switch *driver {
	case config.DriverSQLite:
		target, err = sqlite.Open(ctx, *dsn)
	case config.DriverMongo:
		target, err = mongo.Connect(ctx, *mongoURI, *mongoDB)
	default:
		log.Error(ctx, "unknown driver", logger.String("driver", *driver))
		os.Exit(1)
	}
	if err != nil {
		log.Error(ctx, "opening store failed", logger.String("driver", *driver), logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = target.Close(context.Background()) }()

	stats, err := seed.Load(ctx, target, data, log)
	if err != nil {
		log.Error(ctx, "seeding failed", logger.Error(err))
		return
	}
	log.Info(ctx, "seeding complete",
		logger.String("driver", *driver),
		logger.Int("records", data.Len()),
		logger.Any("seed", *seedValue),
		logger.Duration("took", stats.Duration))
}
