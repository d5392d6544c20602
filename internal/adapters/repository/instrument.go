package repository

import (
	"context"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/pkg/logger"
	"github.com/okian/streetpass/pkg/metrics"
)

type instrumented struct {
	Provider
	log logger.Logger
}

// Instrument wraps p so every fetch records latency and failures.
func Instrument(p Provider, log logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{Provider: p, log: log.Named("repository")}
}

func (i *instrumented) Fetch(ctx context.Context, dataset Dataset, filter Filter) ([]model.RawRecord, error) {
	start := time.Now()
	records, err := i.Provider.Fetch(ctx, dataset, filter)
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordSnapshotFetch(string(dataset), ms)
	if err != nil {
		metrics.RecordSnapshotError(string(dataset))
		i.log.Warn(ctx, "snapshot fetch failed",
			logger.String("dataset", string(dataset)),
			logger.Float64("latency_ms", ms),
			logger.Error(err))
		return nil, err
	}
	i.log.Debug(ctx, "snapshot fetched",
		logger.String("dataset", string(dataset)),
		logger.Int("records", len(records)),
		logger.Float64("latency_ms", ms))
	return records, nil
}
