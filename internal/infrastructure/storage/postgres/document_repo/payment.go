package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/payment"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const paymentsTable = "transaction_invoices"

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*BaseDocumentRepo[*payment.Payment]
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			paymentsTable,
			"payment",
			postgres.ExtractDBColumns[payment.Payment](),
			func() *payment.Payment { return &payment.Payment{} },
		),
	}
}

var _ payment.Repository = (*PaymentRepo)(nil)

func (r *PaymentRepo) listByInvoiceQuery(invoiceID id.ID) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("created_at", "id")
}

// ListByInvoice returns the live payments of an invoice, oldest first.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*payment.Payment, error) {
	sql, args, err := r.listByInvoiceQuery(invoiceID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []*payment.Payment{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return items, nil
}
