package movement

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/id"
)

// Repository is write-only apart from the reconciliation read.
type Repository interface {
	// Insert appends entries in one statement.
	Insert(ctx context.Context, entries []*Entry) error

	// ListByInvoiceLine returns a line's entries oldest first.
	ListByInvoiceLine(ctx context.Context, invoiceLineID id.ID) ([]*Entry, error)
}

// History appends stock events.
type History struct {
	repo Repository
	now  func() time.Time
}

// NewHistory creates a new movement history.
func NewHistory(repo Repository) *History {
	return &History{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Append records one event, stamping its id and time.
func (h *History) Append(ctx context.Context, e Entry) error {
	return h.AppendAll(ctx, []Entry{e})
}

// AppendAll records several events in one write. Nothing is written if any
// entry is invalid.
func (h *History) AppendAll(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	now := h.now()
	rows := make([]*Entry, len(entries))
	for i := range entries {
		e := entries[i]
		if err := e.Validate(); err != nil {
			return err
		}
		e.ID = id.New()
		e.CreatedAt = now
		rows[i] = &e
	}

	if err := h.repo.Insert(ctx, rows); err != nil {
		return fmt.Errorf("append stock history: %w", err)
	}
	return nil
}

// ListByInvoiceLine returns the history of one invoice line.
func (h *History) ListByInvoiceLine(ctx context.Context, invoiceLineID id.ID) ([]*Entry, error) {
	return h.repo.ListByInvoiceLine(ctx, invoiceLineID)
}
