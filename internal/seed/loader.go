package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/pkg/logger"
)

// batchSize bounds the records written per Put call.
const batchSize = 500

// Sink stores raw records. The SQLite and MongoDB providers implement it.
type Sink interface {
	Put(ctx context.Context, dataset repository.Dataset, records ...model.RawRecord) error
}

// Stats holds load statistics.
type Stats struct {
	Written  map[repository.Dataset]int
	Duration time.Duration
}

// Load writes data into sink in batches, dataset by dataset.
func Load(ctx context.Context, sink Sink, data Dataset, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()
	stats := Stats{Written: make(map[repository.Dataset]int, len(data))}

	for _, dataset := range repository.Datasets() {
		records := data[dataset]
		for lo := 0; lo < len(records); lo += batchSize {
			hi := min(lo+batchSize, len(records))
			if err := sink.Put(ctx, dataset, records[lo:hi]...); err != nil {
				return stats, fmt.Errorf("%w: %s: %w", ErrLoad, dataset, err)
			}
			stats.Written[dataset] += hi - lo
		}
		log.Info(ctx, "dataset seeded",
			logger.String("dataset", string(dataset)),
			logger.Int("records", stats.Written[dataset]))
	}
	stats.Duration = time.Since(start)
	return stats, nil
}
