// Package liveness decides which presence records count as online.
package liveness

import (
	"sort"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
)

// DefaultTimeout is the staleness after which a presence is offline.
const DefaultTimeout = 5 * time.Minute

// Result is the outcome of classifying a snapshot.
type Result struct {
	Online       []model.PresenceRecord
	OfflineCount int
}

// IsOnline reports whether rec is online at now. An explicit inactive flag
// wins over recency. A timestamp ahead of now counts as zero elapsed time.
func IsOnline(rec model.PresenceRecord, now time.Time, timeout time.Duration) bool {
	if !rec.Active {
		return false
	}
	elapsed := now.UnixMilli() - rec.Timestamp
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed <= timeout.Milliseconds()
}

// Classify splits records into online and offline. Online records come back
// newest first, ties broken by id; limit caps the list when positive without
// changing OfflineCount.
func Classify(records []model.PresenceRecord, now time.Time, timeout time.Duration, limit int) Result {
	online := make([]model.PresenceRecord, 0, len(records))
	offline := 0
	for _, rec := range records {
		if IsOnline(rec, now, timeout) {
			online = append(online, rec)
			continue
		}
		offline++
	}

	sort.SliceStable(online, func(i, j int) bool {
		if online[i].Timestamp != online[j].Timestamp {
			return online[i].Timestamp > online[j].Timestamp
		}
		return online[i].ID < online[j].ID
	})
	if limit > 0 && len(online) > limit {
		online = online[:limit]
	}
	return Result{Online: online, OfflineCount: offline}
}
