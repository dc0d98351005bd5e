package payment

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/reference"
	"pharmaledger/pkg/logger"
)

// Tracker records and reverses invoice payments. The invoice row is locked
// for the whole unit of work so concurrent payments serialize on it.
type Tracker struct {
	repo     Repository
	invoices InvoiceStore
	txm      tx.Manager
	actors   reference.ActorResolver
	audit    audit.Recorder
}

// NewTracker creates a new payment tracker. A nil recorder disables auditing.
func NewTracker(repo Repository, invoices InvoiceStore, txm tx.Manager, actors reference.ActorResolver, rec audit.Recorder) *Tracker {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Tracker{
		repo:     repo,
		invoices: invoices,
		txm:      txm,
		actors:   actors,
		audit:    rec,
	}
}

// Record adds a payment to an unpaid invoice. The invoice becomes LUNAS once
// its paid total reaches the declared total.
func (t *Tracker) Record(ctx context.Context, invoiceID id.ID, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	actor, err := t.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = t.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := t.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsPaid() {
			return apperror.NewInvoicePaid(invoiceID.String())
		}

		p := &Payment{
			ID:        id.New(),
			InvoiceID: invoiceID,
			PayDate:   in.PayDate,
			Amount:    in.Amount,
			CreatedBy: actor,
			CreatedAt: time.Now().UTC(),
		}
		if err := t.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		inv.ApplyPayment(in.Amount)
		inv.StampUpdated(actor)
		if err := t.invoices.UpdatePayment(ctx, invoiceID, inv.TotalPay, inv.Status, actor); err != nil {
			return fmt.Errorf("update invoice payment: %w", err)
		}

		res = &Result{Payment: p, Invoice: inv}
		return t.audit.Record(ctx, audit.Entry{
			EntityType: "invoice",
			EntityID:   invoiceID,
			Action:     audit.ActionPayment,
			ActorID:    actor,
			Snapshot:   res,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"payment_id", res.Payment.ID,
		"invoice_id", invoiceID,
		"amount", res.Payment.Amount,
		"total_pay", res.Invoice.TotalPay,
		"status", res.Invoice.Status,
	)
	return res, nil
}

// Reverse soft-deletes a payment and takes its amount off the invoice. A
// settled invoice that is no longer covered goes back to BELUM LUNAS. The
// invoice itself is never deleted here.
func (t *Tracker) Reverse(ctx context.Context, paymentID id.ID) (*Result, error) {
	actor, err := t.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = t.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock order is invoice then payment, the same as Record.
		found, err := t.repo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		inv, err := t.invoices.GetForUpdate(ctx, found.InvoiceID)
		if err != nil {
			return err
		}
		p, err := t.repo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := t.repo.SoftDelete(ctx, paymentID, actor, now); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		p.DeletedAt = &now
		p.DeletedBy = &actor

		inv.RevertPayment(p.Amount)
		inv.StampUpdated(actor)
		if err := t.invoices.UpdatePayment(ctx, inv.ID, inv.TotalPay, inv.Status, actor); err != nil {
			return fmt.Errorf("update invoice payment: %w", err)
		}

		res = &Result{Payment: p, Invoice: inv}
		return t.audit.Record(ctx, audit.Entry{
			EntityType: "invoice",
			EntityID:   inv.ID,
			Action:     audit.ActionPaymentReverse,
			ActorID:    actor,
			Snapshot:   res,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment reversed",
		"payment_id", paymentID,
		"invoice_id", res.Invoice.ID,
		"amount", res.Payment.Amount,
		"total_pay", res.Invoice.TotalPay,
		"status", res.Invoice.Status,
	)
	return res, nil
}

// ListByInvoice returns the live payments of a live invoice, oldest first.
func (t *Tracker) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	if _, err := t.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return t.repo.ListByInvoice(ctx, invoiceID)
}
