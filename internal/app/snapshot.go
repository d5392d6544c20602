package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/normalize"
	"github.com/okian/streetpass/pkg/logger"
	"github.com/okian/streetpass/pkg/metrics"
)

// snapshot holds the normalized records of one derivation run. Datasets that
// failed to load are listed in failed and their slices stay nil.
type snapshot struct {
	presences  []model.PresenceRecord
	posts      []model.Post
	reactions  []model.ReactionPost
	identities []model.Identity

	dropped map[repository.Dataset]int
	failed  map[repository.Dataset]error
}

// fetch loads every requested dataset concurrently. A failed fetch never
// cancels the others; the caller decides which failures it can tolerate.
func (s *Service) fetch(ctx context.Context, filters map[repository.Dataset]repository.Filter) *snapshot {
	snap := &snapshot{
		dropped: make(map[repository.Dataset]int, len(filters)),
		failed:  make(map[repository.Dataset]error),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	raws := make(map[repository.Dataset][]model.RawRecord, len(filters))
	for dataset, filter := range filters {
		g.Go(func() error {
			records, err := s.provider.Fetch(ctx, dataset, filter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				snap.failed[dataset] = err
				return fmt.Errorf("%s: %w", dataset, err)
			}
			raws[dataset] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Debug(ctx, "snapshot incomplete",
			logger.Int("failed", len(snap.failed)),
			logger.Error(err),
		)
	}

	for dataset, records := range raws {
		var kept, dropped int
		switch dataset {
		case repository.Presences:
			snap.presences, dropped = normalize.Presences(records)
			kept = len(snap.presences)
		case repository.Posts:
			snap.posts, dropped = normalize.Posts(records)
			kept = len(snap.posts) - dropped
		case repository.Reactions:
			snap.reactions, dropped = normalize.Reactions(records)
			kept = len(snap.reactions) - dropped
		case repository.Profiles:
			snap.identities, dropped = normalize.Identities(records)
			kept = len(snap.identities) - dropped
		}
		snap.dropped[dataset] = dropped
		metrics.RecordNormalized(string(dataset), kept)
		metrics.RecordDropped(string(dataset), dropped)
	}
	return snap
}

// require returns ErrDerivationUnavailable when any of datasets failed.
func (s *Service) require(ctx context.Context, kind string, snap *snapshot, datasets ...repository.Dataset) error {
	var missing []string
	var cause error
	for _, d := range datasets {
		if err, ok := snap.failed[d]; ok {
			missing = append(missing, string(d))
			if cause == nil {
				cause = err
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	metrics.RecordDerivationUnavailable(kind)
	s.logger.Warn(ctx, "derivation unavailable",
		logger.String("kind", kind),
		logger.String("datasets", strings.Join(missing, ",")),
		logger.Error(cause),
	)
	return fmt.Errorf("%w: %s: %s: %w", ErrDerivationUnavailable, kind, strings.Join(missing, ","), cause)
}
