package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/id"
)

// Repository defines data access for invoices and their lines.
// Reads return only live (non-deleted) rows; a deleted invoice is NotFound.
type Repository interface {
	// Create inserts an invoice header.
	Create(ctx context.Context, inv *Invoice) error

	// Update writes header fields, lifecycle state and audit stamps.
	Update(ctx context.Context, inv *Invoice) error

	// GetByID retrieves an invoice header.
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate retrieves an invoice header with row lock.
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// ExistsNumber checks whether a live invoice other than exclude carries no.
	ExistsNumber(ctx context.Context, no string, exclude *id.ID) (bool, error)

	// CreateLine inserts one invoice line.
	CreateLine(ctx context.Context, line *Line) error

	// GetLines retrieves live lines ordered by line number.
	GetLines(ctx context.Context, invoiceID id.ID) ([]*Line, error)

	// SoftDelete marks the invoice and all its lines deleted.
	SoftDelete(ctx context.Context, invoiceID, actor id.ID, at time.Time) error

	// UpdatePayment writes the paid total and status of a locked invoice.
	UpdatePayment(ctx context.Context, invoiceID id.ID, totalPay decimal.Decimal, status string, actor id.ID) error
}
