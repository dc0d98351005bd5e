package numerator

import (
	"context"
	"time"
)

// Generator issues unique, monotonically increasing codes per scope.
// Implementations must be safe for concurrent callers across processes:
// two calls for the same key never return the same value.
type Generator interface {
	// Next returns the next code for the scope containing at.
	// Pattern: PREFIX + SCOPE + COUNTER (e.g. BRC20261015001)
	Next(ctx context.Context, cfg Config, at time.Time) (string, error)

	// SetNext reseeds the counter so the following Next returns value+1.
	SetNext(ctx context.Context, cfg Config, at time.Time, value int64) error
}
