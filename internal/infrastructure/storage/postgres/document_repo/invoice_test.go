package document_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/invoice"
)

// squirrel.Eq renders driver.Valuer arguments, so ids filtered with it show
// up as their string form.
func TestInvoiceRepo_ExistsNumberQuery(t *testing.T) {
	repo := NewInvoiceRepo(nil)

	sql, args, err := repo.existsNumberQuery("INV-1", nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS ( SELECT 1 FROM invoices WHERE no_invoice = $1 AND deleted_at IS NULL )", sql)
	assert.Equal(t, []any{"INV-1"}, args)

	self := id.New()
	sql, args, err = repo.existsNumberQuery("INV-1", &self).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS ( SELECT 1 FROM invoices WHERE no_invoice = $1 AND deleted_at IS NULL AND id <> $2 )", sql)
	assert.Equal(t, []any{"INV-1", self.String()}, args)
}

func TestInvoiceRepo_GetForUpdateLocksLiveRow(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	invoiceID := id.New()

	sql, args, err := repo.baseSelect().
		Where("id = ?", invoiceID).
		Suffix("FOR UPDATE").
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM invoices WHERE deleted_at IS NULL AND id = $1 FOR UPDATE")
	assert.Contains(t, sql, "no_invoice")
	assert.NotContains(t, sql, "invoice_details")
	assert.Equal(t, []any{invoiceID}, args)
}

func TestInvoiceRepo_LinesQuery(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	invoiceID := id.New()

	sql, args, err := repo.linesQuery(invoiceID).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM invoice_details WHERE invoice_id = $1 AND deleted_at IS NULL ORDER BY line_no")
	assert.Equal(t, []any{invoiceID.String()}, args)
}

func TestInvoiceRepo_InsertSkipsLines(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	inv := &invoice.Invoice{
		NoInvoice: "INV-7",
		Lines:     []*invoice.Line{{LineNo: 1}},
	}

	q, err := repo.insertQuery(inv)
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO invoices")
	assert.Contains(t, sql, "no_invoice")
	assert.NotContains(t, sql, "invoice_details")
	assert.Len(t, args, len(repo.selectCols))
}

func TestInvoiceRepo_SoftDeleteQueries(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	invoiceID, actor := id.New(), id.New()
	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

	queries, err := repo.softDeleteQueries(invoiceID, actor, at)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t,
		"UPDATE invoices SET deleted_at = $1, deleted_by = $2, state = $3, updated_at = $4, updated_by = $5 WHERE id = $6 AND deleted_at IS NULL",
		queries[0].SQL)
	assert.Equal(t, []any{at, actor, invoice.StateDeleted, at, actor, invoiceID.String()}, queries[0].Args)

	assert.Equal(t,
		"UPDATE invoice_details SET deleted_at = $1, deleted_by = $2 WHERE invoice_id = $3 AND deleted_at IS NULL",
		queries[1].SQL)
	assert.Equal(t, []any{at, actor, invoiceID.String()}, queries[1].Args)
}

func TestInvoiceRepo_UpdatePaymentQuery(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	invoiceID, actor := id.New(), id.New()
	total := decimal.NewFromInt(5000)

	sql, args, err := repo.updatePaymentQuery(invoiceID, total, invoice.StatusPaid, actor).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE invoices SET total_pay = $1, status = $2, updated_by = $3, updated_at = NOW() WHERE id = $4 AND deleted_at IS NULL",
		sql)
	assert.Equal(t, []any{total, invoice.StatusPaid, actor, invoiceID.String()}, args)
}

func TestPaymentRepo_ListByInvoiceQuery(t *testing.T) {
	repo := NewPaymentRepo(nil)
	invoiceID := id.New()

	sql, args, err := repo.listByInvoiceQuery(invoiceID).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, invoice_id, pay_date, total_pay, created_by, created_at, deleted_at, deleted_by FROM transaction_invoices WHERE deleted_at IS NULL AND invoice_id = $1 ORDER BY created_at, id",
		sql)
	assert.Equal(t, []any{invoiceID.String()}, args)
}

func TestPaymentRepo_SoftDeleteQuery(t *testing.T) {
	repo := NewPaymentRepo(nil)
	paymentID, actor := id.New(), id.New()
	at := time.Now().UTC()

	sql, args, err := repo.softDeleteQuery(paymentID, actor, at).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE transaction_invoices SET deleted_at = $1, deleted_by = $2 WHERE id = $3 AND deleted_at IS NULL",
		sql)
	assert.Equal(t, []any{at, actor, paymentID.String()}, args)
}
