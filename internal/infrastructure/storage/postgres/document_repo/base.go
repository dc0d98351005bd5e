// Package document_repo provides PostgreSQL implementations for the invoice
// and payment document repositories.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// liveOnly restricts a query to rows that are not soft-deleted.
var liveOnly = squirrel.Eq{"deleted_at": nil}

// BaseDocumentRepo provides common operations for soft-deletable documents.
// Queries run on the transaction carried by ctx when there is one.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	txm *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// exec runs a built statement and returns the affected row count.
func (r *BaseDocumentRepo[T]) exec(ctx context.Context, q squirrel.Sqlizer, op string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", op, r.tableName, postgres.TranslateWriteError(err, r.entityName))
	}
	return tag.RowsAffected(), nil
}

// insertQuery builds an INSERT of every known column of entity.
func (r *BaseDocumentRepo[T]) insertQuery(entity T) (squirrel.InsertBuilder, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in entity")
	}

	return r.Builder().
		Insert(r.tableName).
		SetMap(postgres.PickColumns(data, r.selectCols)), nil
}

// Create inserts a new document.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	q, err := r.insertQuery(entity)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, q, "insert")
	return err
}

// baseSelect creates a SELECT builder over live rows.
func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(liveOnly)
}

// get scans one row of q into a new entity.
func (r *BaseDocumentRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, entityID id.ID) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}

	return entity, nil
}

// GetByID retrieves a live document by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}), entityID)
}

// GetForUpdate retrieves a live document with row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
	return r.get(ctx, q, entityID)
}

// softDeleteQuery marks one live row deleted.
func (r *BaseDocumentRepo[T]) softDeleteQuery(entityID, actor id.ID, at time.Time) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.tableName).
		Set("deleted_at", at).
		Set("deleted_by", actor).
		Where(squirrel.Eq{"id": entityID}).
		Where(liveOnly)
}

// SoftDelete marks a live document deleted. NotFound if there is none.
func (r *BaseDocumentRepo[T]) SoftDelete(ctx context.Context, entityID, actor id.ID, at time.Time) error {
	n, err := r.exec(ctx, r.softDeleteQuery(entityID, actor, at), "soft delete")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}
