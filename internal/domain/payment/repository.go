package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/invoice"
)

// Repository defines data access for payments. Reads return live rows only.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	GetForUpdate(ctx context.Context, paymentID id.ID) (*Payment, error)
	SoftDelete(ctx context.Context, paymentID, actor id.ID, at time.Time) error
	ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error)
}

// InvoiceStore is the part of the invoice repository payments need.
type InvoiceStore interface {
	GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	UpdatePayment(ctx context.Context, invoiceID id.ID, totalPay decimal.Decimal, status string, actor id.ID) error
}

var _ InvoiceStore = (invoice.Repository)(nil)
