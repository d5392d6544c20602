package repository

import "time"

// Option applies a configuration option to the Memory provider.
type Option func(*Memory)

// WithLatency delays every fetch, for exercising timeouts in tests.
func WithLatency(d time.Duration) Option {
	return func(m *Memory) {
		if d > 0 {
			m.latency = d
		}
	}
}

// WithFailure makes every fetch of dataset fail with err.
func WithFailure(dataset Dataset, err error) Option {
	return func(m *Memory) {
		if err != nil {
			m.failures[dataset] = err
		}
	}
}
