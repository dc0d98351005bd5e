// Package stock owns the per-drug aggregate stock record.
package stock

import (
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/pricing"
)

// Aggregate is the single current-state row per drug.
// PriceBuy is nil until the first receipt and never decreases afterwards.
type Aggregate struct {
	entity.BaseEntity

	DrugID      id.ID            `db:"drug_id" json:"drug_uid"`
	TotalQty    int64            `db:"total_qty" json:"total_qty"`
	PriceBuy    *decimal.Decimal `db:"price_buy" json:"price_buy"`
	Price       decimal.Decimal  `db:"price" json:"price"`
	PriceManual decimal.Decimal  `db:"price_manual" json:"price_manual"`
}

// ApplyReceipt adds qtyPcs pieces bought at cost.
// The recorded cost only moves up; the sale price follows the recorded cost.
// PriceManual is an operator override and is never touched here.
func (a *Aggregate) ApplyReceipt(qtyPcs int64, cost decimal.Decimal, params pricing.Params) {
	a.TotalQty += qtyPcs

	priceBuy := cost
	if a.PriceBuy != nil {
		priceBuy = types.MaxMoney(*a.PriceBuy, cost)
	}
	a.PriceBuy = &priceBuy
	a.Price = params.Sale(priceBuy)
	a.Touch()
}

// IsInitialized reports whether the aggregate has seen a receipt.
func (a *Aggregate) IsInitialized() bool {
	return a.PriceBuy != nil
}

// Receipt is one invoice line arriving into stock.
type Receipt struct {
	DrugID       id.ID
	QtyPcsPerBox int64
	QtyBox       int64
	UnitBoxPrice decimal.Decimal
}

// QtyPcs is the number of pieces received.
func (r Receipt) QtyPcs() int64 {
	return r.QtyPcsPerBox * r.QtyBox
}

// Validate checks receipt invariants.
func (r Receipt) Validate() error {
	if id.IsNil(r.DrugID) {
		return apperror.NewValidation("drug is required").WithDetail("field", "drug_uid")
	}
	if r.QtyPcsPerBox <= 0 {
		return apperror.NewValidation("qty_pcs must be positive").WithDetail("field", "qty_pcs")
	}
	if r.QtyBox <= 0 {
		return apperror.NewValidation("qty_box must be positive").WithDetail("field", "qty_box")
	}
	if r.UnitBoxPrice.IsNegative() {
		return apperror.NewValidation("price_box must not be negative").WithDetail("field", "price_box")
	}
	return nil
}

// LotView is a lot of an aggregate joined with the invoice line it came from.
type LotView struct {
	ID            id.ID      `db:"id" json:"uid"`
	StockID       id.ID      `db:"stock_id" json:"-"`
	Barcode       string     `db:"barcode" json:"barcode"`
	NoBatch       string     `db:"no_batch" json:"no_batch"`
	ExpiredDate   types.Date `db:"expired_date" json:"expired_date"`
	QtyPcs        int64      `db:"qty_pcs" json:"qty_pcs"`
	QtyBox        int64      `db:"qty_box" json:"qty_box"`
	QtyRemaining  int64      `db:"qty_remaining" json:"qty_remaining"`
	IsInitiate    bool       `db:"is_initiate" json:"is_initiate"`
	InvoiceLineID *id.ID     `db:"invoice_detail_id" json:"invoice_detail_uid,omitempty"`
	InvoiceID     *id.ID     `db:"invoice_id" json:"invoice_uid,omitempty"`
	NoInvoice     *string    `db:"no_invoice" json:"no_invoice,omitempty"`
}

// View is the read-side shape: the aggregate with its lots.
type View struct {
	*Aggregate
	Lots []LotView `json:"stock_details"`
}

// SortFields are the columns Browse accepts in ListFilter.OrderBy.
var SortFields = []string{"total_qty", "price", "price_buy", "price_manual", "created_at", "updated_at"}

// DefaultOrder is applied when the caller does not sort.
const DefaultOrder = "updated_at DESC"
