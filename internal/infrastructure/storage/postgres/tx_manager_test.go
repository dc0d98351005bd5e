package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
)

func fastOpts(retries int) TxOptions {
	opts := DefaultTxOptions()
	opts.MaxRetries = retries
	opts.RetryBackoff = time.Millisecond
	return opts
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{pgCodeSerializationFailure, true},
		{pgCodeDeadlockDetected, true},
		{pgCodeLockNotAvailable, true},
		{pgCodeUniqueViolation, false},
		{"22P02", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("lock stock: %w", &pgconn.PgError{Code: tt.code})
			assert.Equal(t, tt.want, IsRetryable(err))
		})
	}
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestWithRetry_RetriesContentionThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastOpts(3), func(_ context.Context, n int) error {
		calls++
		assert.Equal(t, calls, n)
		if n < 3 {
			return &pgconn.PgError{Code: pgCodeDeadlockDetected}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustionIsConcurrentModification(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastOpts(2), func(context.Context, int) error {
		calls++
		return &pgconn.PgError{Code: pgCodeLockNotAvailable}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, apperror.IsConcurrentModification(err))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "cause is preserved")
}

func TestWithRetry_OtherErrorsAreNotRetried(t *testing.T) {
	calls := 0
	domainErr := apperror.NewValidation("qty_box must be positive")
	err := withRetry(context.Background(), fastOpts(3), func(context.Context, int) error {
		calls++
		return domainErr
	})
	assert.Same(t, domainErr, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := fastOpts(5)
	opts.RetryBackoff = time.Hour

	err := withRetry(ctx, opts, func(context.Context, int) error {
		cancel()
		return &pgconn.PgError{Code: pgCodeSerializationFailure}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslateWriteError(t *testing.T) {
	unique := &pgconn.PgError{Code: pgCodeUniqueViolation, ConstraintName: "uq_invoices_no_invoice_active"}
	err := TranslateWriteError(unique, "invoice")
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.True(t, IsUniqueViolation(err, "uq_invoices_no_invoice_active"))
	assert.False(t, IsUniqueViolation(err, "other"))

	fk := &pgconn.PgError{Code: pgCodeForeignKeyViolation, ConstraintName: "fk_stocks_drug"}
	assert.True(t, apperror.IsNotFound(TranslateWriteError(fk, "stock")))

	deadlock := &pgconn.PgError{Code: pgCodeDeadlockDetected}
	assert.Same(t, error(deadlock), TranslateWriteError(deadlock, "stock"))
}
