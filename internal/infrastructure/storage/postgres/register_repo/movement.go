package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/movement"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

var historyCols = []string{"id", "stock_id", "invoice_detail_id", "status", "qty_pcs", "created_by", "created_at"}

// MovementRepo implements movement.Repository. Rows are only ever inserted.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement history repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ movement.Repository = (*MovementRepo)(nil)

func historyRow(e *movement.Entry) []any {
	return []any{e.ID, e.StockID, e.InvoiceLineID, string(e.Status), e.QtyPcs, e.ActorID, e.CreatedAt}
}

// Insert appends entries. Inside a transaction the rows go through COPY.
func (r *MovementRepo) Insert(ctx context.Context, entries []*movement.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txm.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, historyRow(e))
		}
		inserter := postgres.NewBatchInserter(r.txm)
		if _, err := inserter.CopyFromSlice(ctx, historyTable, historyCols, rows); err != nil {
			return fmt.Errorf("copy history: %w", err)
		}
		return nil
	}

	sql, args, err := r.insertQuery(entries).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *MovementRepo) insertQuery(entries []*movement.Entry) squirrel.InsertBuilder {
	q := r.builder.Insert(historyTable).Columns(historyCols...)
	for _, e := range entries {
		q = q.Values(historyRow(e)...)
	}
	return q
}

func (r *MovementRepo) byLineQuery(invoiceLineID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(historyCols...).
		From(historyTable).
		Where(squirrel.Eq{"invoice_detail_id": invoiceLineID}).
		OrderBy("created_at", "id")
}

// ListByInvoiceLine returns a line's entries oldest first.
func (r *MovementRepo) ListByInvoiceLine(ctx context.Context, invoiceLineID id.ID) ([]*movement.Entry, error) {
	sql, args, err := r.byLineQuery(invoiceLineID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entries := []*movement.Entry{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return entries, nil
}
