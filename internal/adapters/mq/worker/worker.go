// Package worker drains the lookup queue and resolves place names in the
// background, pacing upstream calls.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/streetpass/internal/adapters/mq/queue"
	"github.com/okian/streetpass/pkg/logger"
	"github.com/okian/streetpass/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Resolver resolves one lookup and stores its outcome.
type Resolver interface {
	Resolve(ctx context.Context, l queue.Lookup) error
}

// Queue defines how workers receive lookups.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Lookup
}

// Limiter paces upstream calls; *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Worker processes lookups until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current lookup.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	resolver Resolver
	limiter  Limiter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, r Resolver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		resolver: r,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	lookups := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case l, ok := <-lookups:
			if !ok {
				return
			}
			if err := w.process(ctx, l); err != nil {
				w.logger.Warn(ctx, "lookup failed", logger.String("key", l.Key), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, l queue.Lookup) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing lookup %s: %w", l.Key, err)
		}
	}
	if err := w.resolver.Resolve(ctx, l); err != nil {
		return fmt.Errorf("resolving %s: %w", l.Key, err)
	}
	return nil
}

// Pool manages workers sharing one queue and one limiter.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates workerCount workers. A positive interval is the minimum
// spacing between upstream calls across the whole pool.
func NewPool(workerCount int, q Queue, r Resolver, interval time.Duration, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	if log == nil {
		log = logger.Nop()
	}

	var limiter Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, r,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(log),
			WithLimiter(limiter),
		)
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Shutdown closes the queue, stops every worker and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		close(w.shutdown)
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
