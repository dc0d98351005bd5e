package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/lot"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

var lotCols = postgres.ExtractDBColumns[lot.Detail]()

// LotRepo implements lot.Repository.
type LotRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(txm *postgres.TxManager) *LotRepo {
	return &LotRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ lot.Repository = (*LotRepo)(nil)

func (r *LotRepo) insertQuery(d *lot.Detail) squirrel.InsertBuilder {
	return r.builder.
		Insert(stockDetailTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(d), lotCols))
}

// Create inserts a lot.
func (r *LotRepo) Create(ctx context.Context, d *lot.Detail) error {
	sql, args, err := r.insertQuery(d).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "stock_details_barcode_key") {
			return apperror.NewDuplicate("stock_detail", "barcode", d.Barcode).WithCause(err)
		}
		return fmt.Errorf("insert lot: %w", postgres.TranslateWriteError(err, "stock_detail"))
	}
	return nil
}

func (r *LotRepo) byLineQuery(invoiceLineID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(lotCols...).
		From(stockDetailTable).
		Where(squirrel.Eq{"invoice_detail_id": invoiceLineID}).
		OrderBy("created_at").
		Limit(1)
}

// GetByInvoiceLine returns the lot of an invoice line.
func (r *LotRepo) GetByInvoiceLine(ctx context.Context, invoiceLineID id.ID) (*lot.Detail, error) {
	sql, args, err := r.byLineQuery(invoiceLineID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	d := &lot.Detail{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock_detail", invoiceLineID.String())
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return d, nil
}
