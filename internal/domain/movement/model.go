// Package movement is the append-only history of stock quantity changes.
package movement

import (
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

// Status is the kind of stock event.
type Status string

const (
	// StatusIn is a receipt into stock.
	StatusIn Status = "IN"
	// StatusDeleted reverses a receipt when its invoice is deleted.
	StatusDeleted Status = "DELETED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusIn || s == StatusDeleted
}

// Entry is one history row. Entries are never updated or deleted.
type Entry struct {
	ID            id.ID     `db:"id" json:"uid"`
	StockID       id.ID     `db:"stock_id" json:"stock_uid"`
	InvoiceLineID id.ID     `db:"invoice_detail_id" json:"invoice_detail_uid"`
	Status        Status    `db:"status" json:"status"`
	QtyPcs        int64     `db:"qty_pcs" json:"qty_pcs"`
	ActorID       id.ID     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Validate checks entry invariants.
func (e *Entry) Validate() error {
	switch {
	case id.IsNil(e.StockID):
		return apperror.NewValidation("stock is required").WithDetail("field", "stock_uid")
	case id.IsNil(e.InvoiceLineID):
		return apperror.NewValidation("invoice line is required").WithDetail("field", "invoice_detail_uid")
	case !e.Status.IsValid():
		return apperror.NewValidation("unknown movement status").WithDetail("status", string(e.Status))
	case e.QtyPcs <= 0:
		return apperror.NewValidation("qty_pcs must be positive").WithDetail("field", "qty_pcs")
	case id.IsNil(e.ActorID):
		return apperror.NewValidation("actor is required").WithDetail("field", "created_by")
	}
	return nil
}
