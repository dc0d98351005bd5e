package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/invoice"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceLinesTable = "invoice_details"

	// invoiceNumberConstraint is the partial unique index on live invoice numbers.
	invoiceNumberConstraint = "uq_invoices_no_invoice_active"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
	lineCols []string
	batch    *postgres.BatchExecutor
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable,
			"invoice",
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
		lineCols: postgres.ExtractDBColumns[invoice.Line](),
		batch:    postgres.NewBatchExecutor(txm),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// Create inserts an invoice header. A live invoice with the same number is
// reported as a duplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	err := r.BaseDocumentRepo.Create(ctx, inv)
	if postgres.IsUniqueViolation(err, invoiceNumberConstraint) {
		return apperror.NewDuplicate("invoice", "no_invoice", inv.NoInvoice).WithCause(err)
	}
	return err
}

func (r *InvoiceRepo) updateQuery(inv *invoice.Invoice) squirrel.UpdateBuilder {
	return r.Builder().
		Update(invoicesTable).
		SetMap(map[string]any{
			"no_invoice":     inv.NoInvoice,
			"invoice_date":   inv.InvoiceDate,
			"receive_date":   inv.ReceiveDate,
			"due_date":       inv.DueDate,
			"distributor_id": inv.DistributorID,
			"total_invoice":  inv.TotalInvoice,
			"status":         inv.Status,
			"state":          inv.State,
			"updated_by":     inv.UpdatedBy,
			"updated_at":     inv.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": inv.ID}).
		Where(liveOnly)
}

// Update writes header fields, lifecycle state and audit stamps.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	n, err := r.exec(ctx, r.updateQuery(inv), "update")
	if postgres.IsUniqueViolation(err, invoiceNumberConstraint) {
		return apperror.NewDuplicate("invoice", "no_invoice", inv.NoInvoice).WithCause(err)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("invoice", inv.ID.String())
	}
	return nil
}

func (r *InvoiceRepo) existsNumberQuery(no string, exclude *id.ID) squirrel.SelectBuilder {
	q := r.Builder().
		Select("1").
		From(invoicesTable).
		Where(squirrel.Eq{"no_invoice": no}).
		Where(liveOnly)
	if exclude != nil {
		q = q.Where(squirrel.NotEq{"id": *exclude})
	}
	return q.Prefix("SELECT EXISTS (").Suffix(")")
}

// ExistsNumber checks whether a live invoice other than exclude carries no.
func (r *InvoiceRepo) ExistsNumber(ctx context.Context, no string, exclude *id.ID) (bool, error) {
	sql, args, err := r.existsNumberQuery(no, exclude).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return exists, nil
}

// CreateLine inserts one invoice line.
func (r *InvoiceRepo) CreateLine(ctx context.Context, line *invoice.Line) error {
	q := r.Builder().
		Insert(invoiceLinesTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(line), r.lineCols))

	_, err := r.exec(ctx, q, "insert line")
	return err
}

func (r *InvoiceRepo) linesQuery(invoiceID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.lineCols...).
		From(invoiceLinesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(liveOnly).
		OrderBy("line_no")
}

// GetLines retrieves live lines ordered by line number.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]*invoice.Line, error) {
	sql, args, err := r.linesQuery(invoiceID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := []*invoice.Line{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// softDeleteQueries marks the header and its live lines deleted.
func (r *InvoiceRepo) softDeleteQueries(invoiceID, actor id.ID, at time.Time) ([]postgres.BatchQuery, error) {
	header := r.softDeleteQuery(invoiceID, actor, at).
		Set("state", invoice.StateDeleted).
		Set("updated_at", at).
		Set("updated_by", actor)

	lines := r.Builder().
		Update(invoiceLinesTable).
		Set("deleted_at", at).
		Set("deleted_by", actor).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(liveOnly)

	out := make([]postgres.BatchQuery, 0, 2)
	for _, q := range []squirrel.UpdateBuilder{header, lines} {
		sql, args, err := q.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build soft delete: %w", err)
		}
		out = append(out, postgres.BatchQuery{SQL: sql, Args: args})
	}
	return out, nil
}

// SoftDelete marks the invoice and all its lines deleted in one round-trip.
func (r *InvoiceRepo) SoftDelete(ctx context.Context, invoiceID, actor id.ID, at time.Time) error {
	queries, err := r.softDeleteQueries(invoiceID, actor, at)
	if err != nil {
		return err
	}

	affected, err := r.batch.ExecuteBatch(ctx, queries)
	if err != nil {
		return fmt.Errorf("soft delete invoice: %w", err)
	}
	if affected[0] == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return nil
}

func (r *InvoiceRepo) updatePaymentQuery(invoiceID id.ID, totalPay decimal.Decimal, status string, actor id.ID) squirrel.UpdateBuilder {
	return r.Builder().
		Update(invoicesTable).
		Set("total_pay", totalPay).
		Set("status", status).
		Set("updated_by", actor).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": invoiceID}).
		Where(liveOnly)
}

// UpdatePayment writes the paid total and status of a locked invoice.
func (r *InvoiceRepo) UpdatePayment(ctx context.Context, invoiceID id.ID, totalPay decimal.Decimal, status string, actor id.ID) error {
	n, err := r.exec(ctx, r.updatePaymentQuery(invoiceID, totalPay, status, actor), "update payment")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return nil
}
