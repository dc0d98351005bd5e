package lot

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/pkg/logger"
)

// Codes configures the sequences a Ledger draws codes from.
type Codes struct {
	// Barcode issues the unique lot barcode.
	Barcode numerator.Config
	// Batch issues a lot number when the invoice line carries none.
	Batch numerator.Config
}

// DefaultCodes returns the built-in code sequences.
func DefaultCodes() Codes {
	return Codes{
		Barcode: numerator.DefaultConfig("BRC"),
		Batch:   numerator.Config{Prefix: "BN", ScopeLayout: "060102", PadWidth: 3},
	}
}

// Ledger records lots for invoice lines.
type Ledger struct {
	repo  Repository
	seq   numerator.Generator
	codes Codes
	now   func() time.Time
}

// NewLedger creates a new lot ledger.
func NewLedger(repo Repository, seq numerator.Generator, codes Codes) *Ledger {
	return &Ledger{
		repo:  repo,
		seq:   seq,
		codes: codes,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used for code scopes. Used by tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// RecordLot writes the lot of one invoice line. The barcode comes from the
// day-scoped sequence; an empty lot number is filled from the batch sequence.
func (l *Ledger) RecordLot(ctx context.Context, in Input) (*Detail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := l.now()
	barcode, err := l.seq.Next(ctx, l.codes.Barcode, now)
	if err != nil {
		return nil, fmt.Errorf("generate lot barcode: %w", err)
	}

	noBatch := in.LotNumber
	if noBatch == "" {
		noBatch, err = l.seq.Next(ctx, l.codes.Batch, now)
		if err != nil {
			return nil, fmt.Errorf("generate batch number: %w", err)
		}
	}

	qty := in.QtyBox * in.QtyPcsPerBox
	d := &Detail{
		ID:            id.New(),
		StockID:       in.StockID,
		InvoiceLineID: in.InvoiceLineID,
		QtyPcs:        qty,
		QtyBox:        in.QtyBox,
		QtyRemaining:  qty,
		ExpiredDate:   in.Expiry,
		NoBatch:       noBatch,
		Barcode:       barcode,
		IsInitiate:    false,
		CreatedAt:     now,
	}

	if err := l.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create lot %s: %w", barcode, err)
	}

	logger.Debug(ctx, "lot recorded",
		"lot_id", d.ID,
		"barcode", d.Barcode,
		"no_batch", d.NoBatch,
		"qty_pcs", d.QtyPcs,
	)

	return d, nil
}

// FindByInvoiceLine returns the lot of an invoice line, or a StockNotFound
// error when the line has none.
func (l *Ledger) FindByInvoiceLine(ctx context.Context, invoiceLineID id.ID) (*Detail, error) {
	d, err := l.repo.GetByInvoiceLine(ctx, invoiceLineID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewStockNotFound(invoiceLineID).WithCause(err)
		}
		return nil, fmt.Errorf("get lot for line %s: %w", invoiceLineID, err)
	}
	return d, nil
}

// HasOutstandingQuantity reports whether the line's lot still has pieces on hand.
func (l *Ledger) HasOutstandingQuantity(ctx context.Context, invoiceLineID id.ID) (bool, error) {
	d, err := l.FindByInvoiceLine(ctx, invoiceLineID)
	if err != nil {
		return false, err
	}
	return d.HasOutstandingQuantity(), nil
}
