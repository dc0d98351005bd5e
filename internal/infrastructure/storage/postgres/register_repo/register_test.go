package register_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/lot"
	"pharmaledger/internal/domain/movement"
	"pharmaledger/internal/domain/stock"
)

func TestStockRepo_EnsureQueryIgnoresExistingRow(t *testing.T) {
	repo := NewStockRepo(nil)
	drug := id.New()
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

	sql, args, err := repo.ensureQuery(drug, now).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO stocks (id,drug_id,total_qty,price,price_manual,created_at,updated_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (drug_id) DO NOTHING", sql)
	require.Len(t, args, 7)
	assert.Equal(t, drug, args[1])
	assert.Equal(t, 0, args[2])
}

func TestStockRepo_LockQuery(t *testing.T) {
	repo := NewStockRepo(nil)
	drug := id.New()

	sql, args, err := repo.selectByDrug(drug).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM stocks WHERE drug_id = $1 FOR UPDATE")
	assert.Contains(t, sql, "price_manual")
	assert.Equal(t, []any{drug.String()}, args)
}

func TestStockRepo_SaveLeavesManualPrice(t *testing.T) {
	repo := NewStockRepo(nil)
	buy := decimal.NewFromInt(11100)
	agg := &stock.Aggregate{TotalQty: 20, PriceBuy: &buy, Price: decimal.NewFromInt(13320)}
	agg.ID = id.New()
	agg.UpdatedAt = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

	sql, args, err := repo.saveQuery(agg).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE stocks SET total_qty = $1, price_buy = $2, price = $3, updated_at = $4 WHERE id = $5", sql)
	assert.NotContains(t, sql, "price_manual")
	assert.Equal(t, int64(20), args[0])
	assert.Equal(t, agg.ID.String(), args[4])
}

func TestStockRepo_ListQuery(t *testing.T) {
	repo := NewStockRepo(nil)

	sql, args, err := repo.listQuery(domain.ListFilter{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)

	sql, args, err = repo.listQuery(domain.ListFilter{Search: "para"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE drug_id IN (SELECT id FROM drugs WHERE name ILIKE $1 AND deleted_at IS NULL)")
	assert.Equal(t, []any{"%para%"}, args)
}

func TestStockRepo_LotsQueryJoinsInvoice(t *testing.T) {
	repo := NewStockRepo(nil)
	a, b := id.New(), id.New()

	sql, args, err := repo.lotsQuery([]id.ID{a, b}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM stock_details sd")
	assert.Contains(t, sql, "LEFT JOIN invoice_details idt ON idt.id = sd.invoice_detail_id")
	assert.Contains(t, sql, "LEFT JOIN invoices inv ON inv.id = idt.invoice_id")
	assert.Contains(t, sql, "WHERE sd.stock_id IN ($1,$2)")
	assert.Len(t, args, 2)
}

func TestLotRepo_InsertQuery(t *testing.T) {
	repo := NewLotRepo(nil)
	d := &lot.Detail{
		ID:            id.New(),
		StockID:       id.New(),
		InvoiceLineID: id.New(),
		QtyPcs:        20,
		QtyBox:        2,
		QtyRemaining:  20,
		ExpiredDate:   types.MustParseDate("01/03/2027"),
		NoBatch:       "BN20261015001",
		Barcode:       "BRC20261015001",
	}

	sql, args, err := repo.insertQuery(d).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO stock_details")
	assert.Contains(t, sql, "barcode")
	assert.Contains(t, sql, "invoice_detail_id")
	assert.Len(t, args, len(lotCols))
}

func TestLotRepo_ByLineQuery(t *testing.T) {
	repo := NewLotRepo(nil)
	line := id.New()

	sql, args, err := repo.byLineQuery(line).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM stock_details WHERE invoice_detail_id = $1 ORDER BY created_at LIMIT 1")
	assert.Equal(t, []any{line.String()}, args)
}

func TestMovementRepo_InsertQueryIsMultiRow(t *testing.T) {
	repo := NewMovementRepo(nil)
	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	entries := []*movement.Entry{
		{ID: id.New(), StockID: id.New(), InvoiceLineID: id.New(), Status: movement.StatusIn, QtyPcs: 20, ActorID: id.New(), CreatedAt: at},
		{ID: id.New(), StockID: id.New(), InvoiceLineID: id.New(), Status: movement.StatusDeleted, QtyPcs: 5, ActorID: id.New(), CreatedAt: at},
	}

	sql, args, err := repo.insertQuery(entries).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO stock_histories (id,stock_id,invoice_detail_id,status,qty_pcs,created_by,created_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)", sql)
	assert.Len(t, args, 14)
	assert.Equal(t, "IN", args[3])
	assert.Equal(t, "DELETED", args[10])
}

func TestMovementRepo_ByLineQueryIsOldestFirst(t *testing.T) {
	repo := NewMovementRepo(nil)
	line := id.New()

	sql, _, err := repo.byLineQuery(line).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE invoice_detail_id = $1 ORDER BY created_at, id")
}
