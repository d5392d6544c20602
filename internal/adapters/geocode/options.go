package geocode

import "github.com/okian/streetpass/pkg/logger"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithStore shares resolved places through s.
func WithStore(s Store) Option {
	return func(r *Resolver) {
		if s != nil {
			r.store = s
		}
	}
}

// WithQueue hands cache misses to q.
func WithQueue(q Enqueuer) Option {
	return func(r *Resolver) {
		if q != nil {
			r.queue = q
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}
