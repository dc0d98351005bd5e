// Package catalog_repo provides PostgreSQL lookups against master data the
// ledger reads but does not own.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/reference"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// ReferenceRepo implements reference.Repository.
type ReferenceRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReferenceRepo creates a new master data lookup.
func NewReferenceRepo(txm *postgres.TxManager) *ReferenceRepo {
	return &ReferenceRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ reference.Repository = (*ReferenceRepo)(nil)

func (r *ReferenceRepo) existsQuery(table string, rowID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From(table).
		Where(squirrel.Eq{"id": rowID, "deleted_at": nil}).
		Suffix(")")
}

func (r *ReferenceRepo) exists(ctx context.Context, table string, rowID id.ID) (bool, error) {
	sql, args, err := r.existsQuery(table, rowID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var ok bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup %s: %w", table, err)
	}
	return ok, nil
}

// DrugExists reports whether a live drug has the id.
func (r *ReferenceRepo) DrugExists(ctx context.Context, drugID id.ID) (bool, error) {
	return r.exists(ctx, "drugs", drugID)
}

// DistributorExists reports whether a live distributor has the id.
func (r *ReferenceRepo) DistributorExists(ctx context.Context, distributorID id.ID) (bool, error) {
	return r.exists(ctx, "distributors", distributorID)
}

// UserExists reports whether a live user has the id.
func (r *ReferenceRepo) UserExists(ctx context.Context, userID id.ID) (bool, error) {
	return r.exists(ctx, "users", userID)
}
