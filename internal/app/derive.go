package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/activity"
	"github.com/okian/streetpass/internal/domain/liveness"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/proximity"
	"github.com/okian/streetpass/internal/domain/stats"
	"github.com/okian/streetpass/internal/domain/types"
	"github.com/okian/streetpass/pkg/logger"
	"github.com/okian/streetpass/pkg/metrics"
)

// Derivation kinds, used as metric labels and in Dashboard.Unavailable.
const (
	KindOnline     = "online"
	KindEncounters = "encounters"
	KindActivity   = "activity"
	KindSummary    = "summary"
	KindEmotions   = "emotions"
	KindRecent     = "recent"
)

// dashboardViews lists the views Dashboard computes, in report order.
var dashboardViews = []string{KindOnline, KindEncounters, KindActivity, KindSummary, KindEmotions, KindRecent}

// DayLayout is the calendar day format accepted by Encounters.
const DayLayout = "2006-01-02"

// run times one derivation and logs its outcome under a fresh run id.
func (s *Service) run(ctx context.Context, kind string, fn func(log logger.Logger) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	log := s.logger.Named(kind)
	runID := uuid.NewString()
	start := time.Now()
	err := fn(log)
	took := time.Since(start)
	metrics.RecordDerivationLatency(kind, float64(took.Microseconds())/1000)
	if err != nil {
		return err
	}
	log.Debug(ctx, "derivation complete", logger.String("run_id", runID), logger.Duration("took", took))
	return nil
}

// Online classifies every presence against now.
func (s *Service) Online(ctx context.Context, now time.Time) (types.Online, error) {
	var out types.Online
	err := s.run(ctx, KindOnline, func(log logger.Logger) error {
		snap := s.fetch(ctx, map[repository.Dataset]repository.Filter{
			repository.Presences: {},
		})
		if err := s.require(ctx, KindOnline, snap, repository.Presences); err != nil {
			return err
		}
		out = s.online(ctx, snap, now)
		log.Debug(ctx, "classified presences",
			logger.Int("online", out.OnlineCount),
			logger.Int("offline", out.OfflineCount),
			logger.Int("dropped", out.Dropped),
		)
		return nil
	})
	return out, err
}

func (s *Service) online(ctx context.Context, snap *snapshot, now time.Time) types.Online {
	res := liveness.Classify(snap.presences, now, s.livenessTimeout, s.onlineLimit)
	list := make([]types.Presence, len(res.Online))
	for i, p := range res.Online {
		list[i] = types.NewPresence(p, s.place(ctx, p.Location))
	}
	metrics.UpdateOnlineCount(len(res.Online))
	return types.Online{
		Online:       list,
		OnlineCount:  len(res.Online),
		OfflineCount: res.OfflineCount,
		Dropped:      snap.dropped[repository.Presences],
	}
}

// Encounters pairs the presences of the calendar day containing day.
func (s *Service) Encounters(ctx context.Context, day time.Time) (types.Encounters, error) {
	var out types.Encounters
	err := s.run(ctx, KindEncounters, func(log logger.Logger) error {
		d := model.DayOf(day, s.location)
		snap := s.fetch(ctx, map[repository.Dataset]repository.Filter{
			repository.Presences: {Since: time.UnixMilli(d.Start)},
		})
		if err := s.require(ctx, KindEncounters, snap, repository.Presences); err != nil {
			return err
		}
		out = s.encounters(ctx, snap, day)
		log.Debug(ctx, "matched encounters",
			logger.String("day", out.Day),
			logger.Int("presences", len(snap.presences)),
			logger.Int("encounters", out.Count),
		)
		return nil
	})
	return out, err
}

func (s *Service) encounters(ctx context.Context, snap *snapshot, day time.Time) types.Encounters {
	d := model.DayOf(day, s.location)
	events := proximity.Match(snap.presences, d, s.encounterWindow, s.encounterDistance)
	list := make([]types.Encounter, len(events))
	for i, ev := range events {
		list[i] = types.Encounter{
			ID: ev.ID,
			Participants: [2]types.Presence{
				types.NewPresence(ev.Participants[0], ""),
				types.NewPresence(ev.Participants[1], ""),
			},
			OccurredAt:     time.UnixMilli(ev.OccurredAt).UTC(),
			DistanceMeters: ev.DistanceMeters,
			Midpoint:       types.NewLocation(ev.Midpoint),
			Place:          s.place(ctx, ev.Midpoint),
		}
	}
	metrics.RecordEncounters(len(events))
	return types.Encounters{
		Day:        day.In(s.location).Format(DayLayout),
		Encounters: list,
		Count:      len(list),
		Dropped:    snap.dropped[repository.Presences],
	}
}

// activityFilters bounds every activity input to the range. Only the post
// collections are capped, newest first; presences and profiles are read in
// full so every in-range record lands in a bucket.
func (s *Service) activityFilters(r activity.Range, now time.Time) map[repository.Dataset]repository.Filter {
	lower, _ := r.Bounds(now)
	limit := s.activityLimitDaily
	if r.Hourly() {
		limit = s.activityLimitHourly
	}
	capped := repository.Filter{Since: lower, Limit: limit, Desc: true}
	return map[repository.Dataset]repository.Filter{
		repository.Presences: {Since: lower},
		repository.Posts:     capped,
		repository.Reactions: capped,
		repository.Profiles:  {Since: lower},
	}
}

// Activity buckets posts, reactions, new identities and presences over r.
func (s *Service) Activity(ctx context.Context, r activity.Range, now time.Time) (types.Activity, error) {
	var out types.Activity
	err := s.run(ctx, KindActivity, func(log logger.Logger) error {
		snap := s.fetch(ctx, s.activityFilters(r, now))
		if err := s.require(ctx, KindActivity, snap, repository.Datasets()...); err != nil {
			return err
		}
		out = s.activity(snap, r, now)
		log.Debug(ctx, "aggregated activity",
			logger.String("range", r.Name),
			logger.Int("buckets", len(out.Buckets)),
		)
		return nil
	})
	return out, err
}

func (s *Service) activity(snap *snapshot, r activity.Range, now time.Time) types.Activity {
	events := activity.Events(snap.posts, snap.reactions, snap.identities, snap.presences)
	buckets := activity.Aggregate(events, r, now, s.location)
	out := types.Activity{Range: r.Name, Buckets: make([]types.Bucket, len(buckets))}
	for i, b := range buckets {
		out.Buckets[i] = types.NewBucket(b)
	}
	return out
}

var fullSnapshot = map[repository.Dataset]repository.Filter{
	repository.Presences: {},
	repository.Posts:     {},
	repository.Reactions: {},
	repository.Profiles:  {},
}

// Summary rolls up totals and the counts of the day containing now.
func (s *Service) Summary(ctx context.Context, now time.Time) (types.Summary, error) {
	var out types.Summary
	err := s.run(ctx, KindSummary, func(log logger.Logger) error {
		snap := s.fetch(ctx, fullSnapshot)
		if err := s.require(ctx, KindSummary, snap, repository.Datasets()...); err != nil {
			return err
		}
		out = s.summary(snap, now)
		log.Debug(ctx, "rolled up stats", logger.Int("encounters_today", out.EncountersToday))
		return nil
	})
	return out, err
}

func (s *Service) summary(snap *snapshot, now time.Time) types.Summary {
	day := model.DayOf(now, s.location)
	return types.NewSummary(stats.Rollup(snap.presences, snap.posts, snap.reactions, snap.identities, day))
}

// Emotions breaks reaction posts down by emotion.
func (s *Service) Emotions(ctx context.Context) ([]types.EmotionShare, error) {
	var out []types.EmotionShare
	err := s.run(ctx, KindEmotions, func(log logger.Logger) error {
		snap := s.fetch(ctx, map[repository.Dataset]repository.Filter{
			repository.Reactions: {},
		})
		if err := s.require(ctx, KindEmotions, snap, repository.Reactions); err != nil {
			return err
		}
		out = types.NewEmotionShares(stats.Emotions(snap.reactions))
		log.Debug(ctx, "broke down emotions", logger.Int("emotions", len(out)))
		return nil
	})
	return out, err
}

// Recent merges the newest posts and reaction posts.
func (s *Service) Recent(ctx context.Context) ([]types.FeedItem, error) {
	var out []types.FeedItem
	err := s.run(ctx, KindRecent, func(log logger.Logger) error {
		f := repository.Filter{Limit: defaultRecentPerKind, Desc: true}
		snap := s.fetch(ctx, map[repository.Dataset]repository.Filter{
			repository.Posts:     f,
			repository.Reactions: f,
		})
		if err := s.require(ctx, KindRecent, snap, repository.Posts, repository.Reactions); err != nil {
			return err
		}
		out = s.recent(snap)
		log.Debug(ctx, "built feed", logger.Int("items", len(out)))
		return nil
	})
	return out, err
}

func (s *Service) recent(snap *snapshot) []types.FeedItem {
	return types.NewFeed(stats.Recent(snap.posts, snap.reactions, defaultRecentPerKind, s.recentLimit))
}

// Dashboard computes every view from one set of snapshots. Views whose
// inputs failed are left out and named in Unavailable; the call itself fails
// only when no view could be computed.
func (s *Service) Dashboard(ctx context.Context, r activity.Range, now time.Time) (types.Dashboard, error) {
	out := types.Dashboard{GeneratedAt: now.UTC()}
	err := s.run(ctx, "dashboard", func(log logger.Logger) error {
		snap := s.fetch(ctx, fullSnapshot)

		var wg sync.WaitGroup
		view := func(kind string, fn func(), datasets ...repository.Dataset) {
			if err := s.require(ctx, kind, snap, datasets...); err != nil {
				out.Unavailable = append(out.Unavailable, kind)
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				fn()
			}()
		}

		var (
			online     types.Online
			encounters types.Encounters
			buckets    types.Activity
			summary    types.Summary
		)
		view(KindOnline, func() { online = s.online(ctx, snap, now) }, repository.Presences)
		view(KindEncounters, func() { encounters = s.encounters(ctx, snap, now) }, repository.Presences)
		view(KindActivity, func() { buckets = s.activity(snap, r, now) }, repository.Datasets()...)
		view(KindSummary, func() { summary = s.summary(snap, now) }, repository.Datasets()...)
		view(KindEmotions, func() { out.Emotions = types.NewEmotionShares(stats.Emotions(snap.reactions)) }, repository.Reactions)
		view(KindRecent, func() { out.Recent = s.recent(snap) }, repository.Posts, repository.Reactions)
		wg.Wait()

		if len(out.Unavailable) == len(dashboardViews) {
			return ErrDerivationUnavailable
		}
		if !slices.Contains(out.Unavailable, KindOnline) {
			out.Online = &online
		}
		if !slices.Contains(out.Unavailable, KindEncounters) {
			out.Encounters = &encounters
		}
		if !slices.Contains(out.Unavailable, KindActivity) {
			out.Activity = &buckets
		}
		if !slices.Contains(out.Unavailable, KindSummary) {
			out.Summary = &summary
		}
		log.Debug(ctx, "built dashboard", logger.Int("unavailable", len(out.Unavailable)))
		return nil
	})
	return out, err
}

// place returns the cached place name near loc, scheduling a lookup on a
// miss. It is empty while the name is unknown.
func (s *Service) place(ctx context.Context, loc *model.Location) string {
	if s.resolver == nil || loc == nil {
		return ""
	}
	name, _ := s.resolver.Place(ctx, loc)
	return name
}
