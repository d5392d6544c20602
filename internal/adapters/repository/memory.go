package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/normalize"
)

// Memory is an in-memory Provider. Records keep insertion order; Put with an
// existing id replaces the record in place.
type Memory struct {
	mu       sync.RWMutex
	data     map[Dataset][]model.RawRecord
	index    map[Dataset]map[string]int
	failures map[Dataset]error
	latency  time.Duration
}

// NewMemory creates an empty in-memory provider.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		data:     make(map[Dataset][]model.RawRecord),
		index:    make(map[Dataset]map[string]int),
		failures: make(map[Dataset]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put inserts or replaces records in dataset.
func (m *Memory) Put(dataset Dataset, records ...model.RawRecord) error {
	if _, err := Lookup(dataset); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index[dataset]
	if idx == nil {
		idx = make(map[string]int)
		m.index[dataset] = idx
	}
	for _, rec := range records {
		if i, ok := idx[rec.ID]; ok {
			m.data[dataset][i] = rec
			continue
		}
		idx[rec.ID] = len(m.data[dataset])
		m.data[dataset] = append(m.data[dataset], rec)
	}
	return nil
}

// Len returns the number of records held for dataset.
func (m *Memory) Len(dataset Dataset) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[dataset])
}

// Fetch implements Provider.
func (m *Memory) Fetch(ctx context.Context, dataset Dataset, filter Filter) ([]model.RawRecord, error) {
	spec, err := Lookup(dataset)
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, dataset, ctx.Err())
		}
	}

	m.mu.RLock()
	if ferr := m.failures[dataset]; ferr != nil {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, dataset, ferr)
	}
	src := m.data[dataset]
	type keyed struct {
		rec model.RawRecord
		ts  int64
		ok  bool
	}
	rows := make([]keyed, 0, len(src))
	since := filter.Since.UnixMilli()
	for _, rec := range src {
		ts, ok := normalize.Timestamp(rec.Fields[spec.TimeField])
		if !filter.Since.IsZero() && (!ok || ts < since) {
			continue
		}
		rows = append(rows, keyed{rec: rec, ts: ts, ok: ok})
	}
	m.mu.RUnlock()

	if filter.Desc {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].ok != rows[j].ok {
				return rows[i].ok
			}
			return rows[i].ts > rows[j].ts
		})
	}
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]model.RawRecord, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out, nil
}

// Close implements Provider.
func (m *Memory) Close(context.Context) error { return nil }
