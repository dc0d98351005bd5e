package invoice

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/lot"
	"pharmaledger/internal/domain/movement"
	"pharmaledger/internal/domain/params"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/domain/reference"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/pkg/logger"
)

// Config wires a Processor.
type Config struct {
	Repo       Repository
	TxManager  tx.Manager
	Stock      *stock.Aggregator
	Lots       *lot.Ledger
	History    *movement.History
	References *reference.Checker
	Actors     reference.ActorResolver
	Params     *params.Provider
}

// Processor runs invoice create, edit and delete. Each mutation is one
// transaction over the header, its lines and every stock, lot and history
// write they cause: either all of it commits or none of it does.
type Processor struct {
	repo    Repository
	txm     tx.Manager
	stock   *stock.Aggregator
	lots    *lot.Ledger
	history *movement.History
	refs    *reference.Checker
	actors  reference.ActorResolver
	params  *params.Provider
	hooks   *domain.HookRegistry[*Invoice]
}

// NewProcessor creates a new invoice processor.
func NewProcessor(cfg Config) *Processor {
	return &Processor{
		repo:    cfg.Repo,
		txm:     cfg.TxManager,
		stock:   cfg.Stock,
		lots:    cfg.Lots,
		history: cfg.History,
		refs:    cfg.References,
		actors:  cfg.Actors,
		params:  cfg.Params,
		hooks:   domain.NewHookRegistry[*Invoice](),
	}
}

// Hooks returns the hook registry. Hooks run inside the mutation's
// transaction and a failing hook rolls it back.
func (p *Processor) Hooks() *domain.HookRegistry[*Invoice] {
	return p.hooks
}

// RegisterAudit records an invoice snapshot after every mutation.
func (p *Processor) RegisterAudit(rec audit.Recorder) {
	record := func(action audit.Action) domain.Hook[*Invoice] {
		return func(ctx context.Context, inv *Invoice) error {
			actor := inv.CreatedBy
			if inv.UpdatedBy != nil {
				actor = *inv.UpdatedBy
			}
			return rec.Record(ctx, audit.Entry{
				EntityType: "invoice",
				EntityID:   inv.ID,
				Action:     action,
				ActorID:    actor,
				Snapshot:   inv,
			})
		}
	}
	p.hooks.On(domain.AfterCreate, record(audit.ActionCreate))
	p.hooks.On(domain.AfterUpdate, record(audit.ActionUpdate))
	p.hooks.On(domain.AfterDelete, record(audit.ActionDelete))
}

// Create persists a new invoice and receives every line into stock.
func (p *Processor) Create(ctx context.Context, cmd Command) (*Invoice, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if len(cmd.Lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "invoice_details")
	}

	actor, pricingParams, err := p.prepare(ctx, cmd, cmd.Lines, nil)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = p.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv = &Invoice{
			BaseEntity: entity.NewBaseEntity(),
			Status:     StatusUnpaid,
			State:      StateDraft,
		}
		cmd.applyHeader(inv)
		inv.StampCreated(actor)
		if err := inv.transition(StateCreated); err != nil {
			return err
		}

		if err := p.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		for i, in := range cmd.Lines {
			line, err := p.receiveLine(ctx, inv, in, i+1, actor, pricingParams)
			if err != nil {
				return err
			}
			inv.Lines = append(inv.Lines, line)
		}

		return p.hooks.Run(ctx, domain.AfterCreate, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.ID,
		"no_invoice", inv.NoInvoice,
		"lines", len(inv.Lines),
	)
	return inv, nil
}

// Edit updates the header and receives lines marked "new". Lines without
// that mark are not touched.
func (p *Processor) Edit(ctx context.Context, invoiceID id.ID, cmd Command) (*Invoice, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	newLines := cmd.newLines()
	actor, pricingParams, err := p.prepare(ctx, cmd, newLines, &invoiceID)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = p.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := p.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		inv = locked
		if err := inv.transition(StateEdited); err != nil {
			return err
		}
		cmd.applyHeader(inv)
		inv.StampUpdated(actor)
		inv.Touch()

		existing, err := p.repo.GetLines(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		inv.Lines = existing

		nextNo := 1
		for _, l := range existing {
			if l.LineNo >= nextNo {
				nextNo = l.LineNo + 1
			}
		}

		for i, in := range newLines {
			line, err := p.receiveLine(ctx, inv, in, nextNo+i, actor, pricingParams)
			if err != nil {
				return err
			}
			inv.Lines = append(inv.Lines, line)
		}

		if err := p.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		return p.hooks.Run(ctx, domain.AfterUpdate, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice edited",
		"invoice_id", inv.ID,
		"no_invoice", inv.NoInvoice,
		"new_lines", len(newLines),
	)
	return inv, nil
}

// Delete reverses an invoice. It is refused as a whole when any line's lot
// is missing or still has pieces on hand. Otherwise the invoice and its lines
// are soft-deleted and one DELETED movement per line records the reversal.
// Lots and aggregate stock are kept as historical record.
func (p *Processor) Delete(ctx context.Context, invoiceID id.ID) error {
	actor, err := p.actors.CurrentActor(ctx)
	if err != nil {
		return err
	}

	var inv *Invoice
	err = p.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := p.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		inv = locked
		if err := inv.transition(StateDeleted); err != nil {
			return err
		}

		lines, err := p.repo.GetLines(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		reversals := make([]movement.Entry, 0, len(lines))
		for _, line := range lines {
			d, err := p.lots.FindByInvoiceLine(ctx, line.ID)
			if err != nil {
				return err
			}
			if d.HasOutstandingQuantity() {
				return apperror.NewStockStillExist(line.ID.String(), d.QtyRemaining).
					WithDetail("invoice_id", invoiceID.String())
			}
			reversals = append(reversals, movement.Entry{
				StockID:       d.StockID,
				InvoiceLineID: line.ID,
				Status:        movement.StatusDeleted,
				QtyPcs:        d.QtyPcs,
				ActorID:       actor,
			})
		}

		now := time.Now().UTC()
		if err := p.repo.SoftDelete(ctx, invoiceID, actor, now); err != nil {
			return fmt.Errorf("soft delete invoice: %w", err)
		}
		if err := p.history.AppendAll(ctx, reversals); err != nil {
			return err
		}

		inv.DeletedAt = &now
		inv.DeletedBy = &actor
		inv.StampUpdated(actor)
		inv.Lines = lines
		for _, l := range lines {
			l.DeletedAt = &now
			l.DeletedBy = &actor
		}

		return p.hooks.Run(ctx, domain.AfterDelete, inv)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice deleted",
		"invoice_id", invoiceID,
		"no_invoice", inv.NoInvoice,
		"lines", len(inv.Lines),
	)
	return nil
}

// Get retrieves a live invoice with its lines.
func (p *Processor) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := p.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	lines, err := p.repo.GetLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	inv.Lines = lines

	return inv, nil
}

// prepare runs every check that needs no lock: the actor, referenced master
// data, invoice number uniqueness and the current business parameters.
// Failures here return before any write.
func (p *Processor) prepare(ctx context.Context, cmd Command, lines []LineInput, self *id.ID) (id.ID, pricing.Params, error) {
	actor, err := p.actors.CurrentActor(ctx)
	if err != nil {
		return id.Nil(), pricing.Params{}, err
	}

	if err := p.refs.RequireDistributor(ctx, cmd.distributorID()); err != nil {
		return id.Nil(), pricing.Params{}, err
	}
	if err := p.refs.RequireDrugs(ctx, drugIDs(lines)); err != nil {
		return id.Nil(), pricing.Params{}, err
	}

	taken, err := p.repo.ExistsNumber(ctx, cmd.NoInvoice, self)
	if err != nil {
		return id.Nil(), pricing.Params{}, fmt.Errorf("check invoice number: %w", err)
	}
	if taken {
		return id.Nil(), pricing.Params{}, apperror.NewDuplicate("invoice", "no_invoice", cmd.NoInvoice)
	}

	pricingParams, err := p.params.Current(ctx)
	if err != nil {
		return id.Nil(), pricing.Params{}, err
	}

	return actor, pricingParams, nil
}

// receiveLine is the per-line pipeline: aggregate upsert, lot, line row and
// an IN movement.
func (p *Processor) receiveLine(ctx context.Context, inv *Invoice, in LineInput, lineNo int, actor id.ID, pricingParams pricing.Params) (*Line, error) {
	line := in.toLine(inv.ID, lineNo, actor)
	line.CreatedAt = inv.UpdatedAt

	agg, err := p.stock.UpsertReceipt(ctx, stock.Receipt{
		DrugID:       line.DrugID,
		QtyPcsPerBox: line.QtyPcs,
		QtyBox:       line.QtyBox,
		UnitBoxPrice: line.PriceBox,
	}, pricingParams)
	if err != nil {
		return nil, lineErr(lineNo, err)
	}

	d, err := p.lots.RecordLot(ctx, lot.Input{
		StockID:       agg.ID,
		InvoiceLineID: line.ID,
		QtyBox:        line.QtyBox,
		QtyPcsPerBox:  line.QtyPcs,
		Expiry:        line.ExpiredDate,
		LotNumber:     line.NoBatch,
	})
	if err != nil {
		return nil, lineErr(lineNo, err)
	}
	line.NoBatch = d.NoBatch

	if err := p.repo.CreateLine(ctx, line); err != nil {
		return nil, lineErr(lineNo, fmt.Errorf("create line: %w", err))
	}

	if err := p.history.Append(ctx, movement.Entry{
		StockID:       agg.ID,
		InvoiceLineID: line.ID,
		Status:        movement.StatusIn,
		QtyPcs:        d.QtyPcs,
		ActorID:       actor,
	}); err != nil {
		return nil, lineErr(lineNo, err)
	}

	return line, nil
}

// lineErr tags business errors with the failing line and wraps the rest.
func lineErr(lineNo int, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("line_no", lineNo)
	}
	return fmt.Errorf("line %d: %w", lineNo, err)
}
