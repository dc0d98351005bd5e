// Package invoice processes purchase invoices into stock as one atomic unit of work.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Payment status values. Status is free text; only StatusPaid has meaning
// to the ledger.
const (
	StatusPaid   = "LUNAS"
	StatusUnpaid = "BELUM LUNAS"
)

// State is the invoice lifecycle state.
type State string

const (
	StateDraft   State = "DRAFT"
	StateCreated State = "CREATED"
	StateEdited  State = "EDITED"
	StateDeleted State = "DELETED"
)

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s State) CanTransitionTo(next State) bool {
	switch next {
	case StateCreated:
		return s == StateDraft
	case StateEdited, StateDeleted:
		return s == StateCreated || s == StateEdited
	}
	return false
}

// Invoice is a purchase invoice header.
type Invoice struct {
	entity.BaseEntity
	entity.Audited
	entity.SoftDeletable

	NoInvoice     string          `db:"no_invoice" json:"no_invoice"`
	InvoiceDate   types.Date      `db:"invoice_date" json:"invoice_date"`
	ReceiveDate   types.Date      `db:"receive_date" json:"receive_date"`
	DueDate       types.Date      `db:"due_date" json:"due_date"`
	DistributorID id.ID           `db:"distributor_id" json:"distributor_uid"`
	TotalInvoice  decimal.Decimal `db:"total_invoice" json:"total_invoice"`
	TotalPay      decimal.Decimal `db:"total_pay" json:"total_pay"`
	Status        string          `db:"status" json:"status"`
	State         State           `db:"state" json:"state"`

	Lines []*Line `db:"-" json:"invoice_details"`
}

// IsPaid reports whether the invoice is settled.
func (inv *Invoice) IsPaid() bool {
	return inv.Status == StatusPaid
}

// Outstanding is the amount still to pay, never negative.
func (inv *Invoice) Outstanding() decimal.Decimal {
	rest := inv.TotalInvoice.Sub(inv.TotalPay)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// ApplyPayment adds amount to the paid total and settles the invoice once
// the declared total is covered.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) {
	inv.TotalPay = inv.TotalPay.Add(amount)
	if inv.TotalPay.GreaterThanOrEqual(inv.TotalInvoice) {
		inv.Status = StatusPaid
	}
	inv.Touch()
}

// RevertPayment subtracts amount from the paid total. A settled invoice that
// is no longer covered becomes unpaid again.
func (inv *Invoice) RevertPayment(amount decimal.Decimal) {
	inv.TotalPay = inv.TotalPay.Sub(amount)
	if inv.IsPaid() && inv.TotalPay.LessThan(inv.TotalInvoice) {
		inv.Status = StatusUnpaid
	}
	inv.Touch()
}

// transition moves the invoice to next or explains why it cannot.
func (inv *Invoice) transition(next State) error {
	if !inv.State.CanTransitionTo(next) {
		return apperror.NewConflict("invoice cannot move to "+string(next)).
			WithDetail("invoice_id", inv.ID.String()).
			WithDetail("state", string(inv.State))
	}
	inv.State = next
	return nil
}

// Line is one purchased item. Lines are immutable once written apart from
// soft deletion with their invoice.
type Line struct {
	ID              id.ID           `db:"id" json:"uid"`
	InvoiceID       id.ID           `db:"invoice_id" json:"invoice_uid"`
	LineNo          int             `db:"line_no" json:"line_no"`
	DrugID          id.ID           `db:"drug_id" json:"drug_uid"`
	NoBatch         string          `db:"no_batch" json:"no_batch"`
	ExpiredDate     types.Date      `db:"expired_date" json:"expired_date"`
	QtyPcs          int64           `db:"qty_pcs" json:"qty_pcs"`
	QtyBox          int64           `db:"qty_box" json:"qty_box"`
	PriceBox        decimal.Decimal `db:"price_box" json:"price_box"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"total_price"`
	Discount        decimal.Decimal `db:"discount" json:"discount"`
	DiscountNominal decimal.Decimal `db:"discount_nominal" json:"discount_nominal"`
	Ppn             decimal.Decimal `db:"ppn" json:"ppn"`
	PpnNominal      decimal.Decimal `db:"ppn_nominal" json:"ppn_nominal"`
	CreatedBy       id.ID           `db:"created_by" json:"created_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`

	entity.SoftDeletable
}

// TotalPcs is the number of pieces the line brings into stock.
func (l *Line) TotalPcs() int64 {
	return l.QtyPcs * l.QtyBox
}
