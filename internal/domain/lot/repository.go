package lot

import (
	"context"

	"pharmaledger/internal/core/id"
)

// Repository defines data access for lot details. There is no update path.
type Repository interface {
	// Create inserts a lot.
	Create(ctx context.Context, d *Detail) error

	// GetByInvoiceLine returns the lot of an invoice line. NotFound if absent.
	GetByInvoiceLine(ctx context.Context, invoiceLineID id.ID) (*Detail, error)
}
