// Package queue holds pending reverse-geocoding lookups between the request
// path and the background workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Lookup is the payload flowing through the queue.
type Lookup = model.PlaceLookup

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a lookup. It returns false when the queue is full or
	// closed; it never blocks.
	Enqueue(ctx context.Context, l Lookup) bool

	// Dequeue returns a channel receiving lookups until the queue is closed.
	Dequeue(ctx context.Context) <-chan Lookup

	Len(ctx context.Context) int

	// Close stops accepting lookups and closes the dequeue channel once
	// drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	lookups  chan Lookup
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.lookups = make(chan Lookup, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a lookup to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, l Lookup) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordQueueRejection()
		return false
	}

	select {
	case q.lookups <- l:
		metrics.UpdateQueueSize(len(q.lookups))
		return true
	default:
		metrics.RecordQueueRejection()
		return false
	}
}

// Dequeue returns a channel that will receive lookups as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Lookup {
	out := make(chan Lookup)
	go func() {
		defer close(out)
		for l := range q.lookups {
			select {
			case out <- l:
				metrics.UpdateQueueSize(len(q.lookups))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued lookups.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.lookups)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.lookups)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
