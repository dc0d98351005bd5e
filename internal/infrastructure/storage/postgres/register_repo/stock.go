// Package register_repo provides PostgreSQL implementations for the stock
// ledger registers: aggregate stock, lots and movement history.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	stocksTable      = "stocks"
	stockDetailTable = "stock_details"
	historyTable     = "stock_histories"
)

var stockCols = postgres.ExtractDBColumns[stock.Aggregate]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

// ensureQuery inserts an empty aggregate unless the drug already has one.
func (r *StockRepo) ensureQuery(drugID id.ID, now time.Time) squirrel.InsertBuilder {
	return r.builder.
		Insert(stocksTable).
		Columns("id", "drug_id", "total_qty", "price", "price_manual", "created_at", "updated_at").
		Values(id.New(), drugID, 0, 0, 0, now, now).
		Suffix("ON CONFLICT (drug_id) DO NOTHING")
}

func (r *StockRepo) selectByDrug(drugID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(stockCols...).
		From(stocksTable).
		Where(squirrel.Eq{"drug_id": drugID})
}

// LockByDrug creates the drug's aggregate on first use and returns it locked
// FOR UPDATE. Concurrent first receipts race on the unique drug_id: the loser
// of the insert waits on the winner's row lock and then reads its row.
func (r *StockRepo) LockByDrug(ctx context.Context, drugID id.ID) (*stock.Aggregate, error) {
	querier := r.txm.GetQuerier(ctx)

	sql, args, err := r.ensureQuery(drugID, time.Now().UTC()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}

	sql, args, err = r.selectByDrug(drugID).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	agg := &stock.Aggregate{}
	if err := pgxscan.Get(ctx, querier, agg, sql, args...); err != nil {
		return nil, fmt.Errorf("lock stock row: %w", err)
	}
	return agg, nil
}

func (r *StockRepo) saveQuery(agg *stock.Aggregate) squirrel.UpdateBuilder {
	return r.builder.
		Update(stocksTable).
		Set("total_qty", agg.TotalQty).
		Set("price_buy", agg.PriceBuy).
		Set("price", agg.Price).
		Set("updated_at", agg.UpdatedAt).
		Where(squirrel.Eq{"id": agg.ID})
}

// Save writes quantity and prices of a locked aggregate. price_manual is an
// operator field and is never written here.
func (r *StockRepo) Save(ctx context.Context, agg *stock.Aggregate) error {
	sql, args, err := r.saveQuery(agg).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock", agg.ID.String())
	}
	return nil
}

// GetByDrug returns the aggregate without locking.
func (r *StockRepo) GetByDrug(ctx context.Context, drugID id.ID) (*stock.Aggregate, error) {
	sql, args, err := r.selectByDrug(drugID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	agg := &stock.Aggregate{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), agg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock", drugID.String())
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return agg, nil
}

// listQuery applies filters; the caller adds paging and order.
func (r *StockRepo) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.builder.Select(stockCols...).From(stocksTable)

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.Search != "" {
		q = q.Where(
			"drug_id IN (SELECT id FROM drugs WHERE name ILIKE ? AND deleted_at IS NULL)",
			"%"+filter.Search+"%",
		)
	}

	return q
}

// List returns a page of aggregates.
func (r *StockRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*stock.Aggregate], error) {
	result := domain.ListResult[*stock.Aggregate]{
		Items:  []*stock.Aggregate{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.listQuery(filter)

	// Count
	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	// Order
	orderBy, err := domain.ParseOrderBy(filter.OrderBy, stock.SortFields, stock.DefaultOrder)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id")

	// Page
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list stock: %w", err)
	}

	return result, nil
}

func (r *StockRepo) lotsQuery(stockIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"sd.id", "sd.stock_id", "sd.barcode", "sd.no_batch", "sd.expired_date",
			"sd.qty_pcs", "sd.qty_box", "sd.qty_remaining", "sd.is_initiate",
			"sd.invoice_detail_id", "idt.invoice_id", "inv.no_invoice",
		).
		From(stockDetailTable + " sd").
		LeftJoin("invoice_details idt ON idt.id = sd.invoice_detail_id").
		LeftJoin("invoices inv ON inv.id = idt.invoice_id").
		Where(squirrel.Eq{"sd.stock_id": stockIDs}).
		OrderBy("sd.created_at", "sd.barcode")
}

// LotsByStock returns the lots of the given aggregates with the invoice
// each came from.
func (r *StockRepo) LotsByStock(ctx context.Context, stockIDs []id.ID) ([]stock.LotView, error) {
	if len(stockIDs) == 0 {
		return []stock.LotView{}, nil
	}

	sql, args, err := r.lotsQuery(stockIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []stock.LotView
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	return lots, nil
}
