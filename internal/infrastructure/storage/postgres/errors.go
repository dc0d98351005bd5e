package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmaledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the ledger reacts to.
const (
	pgCodeUniqueViolation      = "23505"
	pgCodeForeignKeyViolation  = "23503"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to one constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgCodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// TranslateWriteError maps constraint violations raised by writes to AppErrors.
// Contention codes are passed through untouched so TxManager can retry them.
func TranslateWriteError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgCodeUniqueViolation:
		return apperror.NewConflict(entity+" violates a uniqueness rule").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCodeForeignKeyViolation:
		return apperror.NewNotFound(entity+" reference", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
