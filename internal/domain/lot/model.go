// Package lot records per-receipt batch details linked to aggregate stock.
package lot

import (
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Detail is one physical receipt of a drug. Rows are immutable once written
// except QtyRemaining, which outbound logic outside this engine decrements.
type Detail struct {
	ID            id.ID      `db:"id" json:"uid"`
	StockID       id.ID      `db:"stock_id" json:"stock_uid"`
	InvoiceLineID id.ID      `db:"invoice_detail_id" json:"invoice_detail_uid"`
	QtyPcs        int64      `db:"qty_pcs" json:"qty_pcs"`
	QtyBox        int64      `db:"qty_box" json:"qty_box"`
	QtyRemaining  int64      `db:"qty_remaining" json:"qty_remaining"`
	ExpiredDate   types.Date `db:"expired_date" json:"expired_date"`
	NoBatch       string     `db:"no_batch" json:"no_batch"`
	Barcode       string     `db:"barcode" json:"barcode"`
	IsInitiate    bool       `db:"is_initiate" json:"is_initiate"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// HasOutstandingQuantity reports whether pieces of this lot are still on hand.
func (d *Detail) HasOutstandingQuantity() bool {
	return d.QtyRemaining > 0
}

// Input describes a lot to record for an invoice line.
type Input struct {
	StockID       id.ID
	InvoiceLineID id.ID
	QtyBox        int64
	QtyPcsPerBox  int64
	Expiry        types.Date
	LotNumber     string
}

// Validate checks input invariants.
func (in Input) Validate() error {
	switch {
	case id.IsNil(in.StockID):
		return apperror.NewValidation("stock is required").WithDetail("field", "stock_uid")
	case id.IsNil(in.InvoiceLineID):
		return apperror.NewValidation("invoice line is required").WithDetail("field", "invoice_detail_uid")
	case in.QtyBox <= 0:
		return apperror.NewValidation("qty_box must be positive").WithDetail("field", "qty_box")
	case in.QtyPcsPerBox <= 0:
		return apperror.NewValidation("qty_pcs must be positive").WithDetail("field", "qty_pcs")
	case in.Expiry.IsZero():
		return apperror.NewValidation("expired_date is required").WithDetail("field", "expired_date")
	}
	return nil
}
