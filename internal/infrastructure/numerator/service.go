// Package numerator provides the PostgreSQL implementation of core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "pharmaledger/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, typically the active
// transaction from context or the pool.
type QuerierFunc func(ctx context.Context) Querier

// Service issues codes from a counter row per key in sys_sequences.
//
// Each call is a single INSERT ... ON CONFLICT DO UPDATE ... RETURNING.
// The upsert takes the counter row lock, so concurrent callers for the same
// key are serialised by PostgreSQL and can never observe the same value.
// Inside a transaction the row stays locked until commit and the increment
// rolls back with the unit of work.
type Service struct {
	querier QuerierFunc
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator bound to a single querier (pool or test double).
func New(querier Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return querier }}
}

// NewWithQuerierFunc creates a numerator that resolves its querier per call.
func NewWithQuerierFunc(fn QuerierFunc) *Service {
	return &Service{querier: fn}
}

const nextSQL = `
	INSERT INTO sys_sequences (key, current_val)
	VALUES ($1, 1)
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
	RETURNING current_val`

const setSQL = `
	INSERT INTO sys_sequences (key, current_val)
	VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET current_val = $2
	RETURNING current_val`

// Next returns the next code for the scope containing at.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, at time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if cfg.Prefix == "" {
		return "", fmt.Errorf("numerator prefix is required")
	}

	key := cfg.Key(at)
	var num int64
	if err := s.querier(ctx).QueryRow(ctx, nextSQL, key).Scan(&num); err != nil {
		return "", fmt.Errorf("next %s: %w", key, err)
	}
	return cfg.Format(at, num), nil
}

// SetNext sets the counter value (for migration of legacy codes).
func (s *Service) SetNext(ctx context.Context, cfg corenumerator.Config, at time.Time, value int64) error {
	if value < 0 {
		return fmt.Errorf("counter value must not be negative")
	}
	key := cfg.Key(at)
	var result int64
	if err := s.querier(ctx).QueryRow(ctx, setSQL, key, value).Scan(&result); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
