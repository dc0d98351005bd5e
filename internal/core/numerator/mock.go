package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
// Counters are kept per key behind a mutex.
type MockGenerator struct {
	NextFunc func(ctx context.Context, cfg Config, at time.Time) (string, error)

	mu       sync.Mutex
	counters map[string]int64
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, cfg Config, at time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, cfg, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := cfg.Key(at)
	m.counters[key]++
	return cfg.Format(at, m.counters[key]), nil
}

// SetNext implements Generator.
func (m *MockGenerator) SetNext(_ context.Context, cfg Config, at time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Key(at)] = value
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
