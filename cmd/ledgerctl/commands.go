package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/invoice"
	"pharmaledger/internal/domain/payment"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/pkg/config"
)

// command splits "<action> [flags]" and prepares a flag set for the action.
type command struct {
	action string
	fs     *flag.FlagSet
	actor  *string
	args   []string
}

func newCommand(name string, args []string) (*command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: action is required", name)
	}
	fs := flag.NewFlagSet(name+" "+args[0], flag.ContinueOnError)
	return &command{
		action: args[0],
		fs:     fs,
		actor:  fs.String("actor", "", "acting user id"),
		args:   args[1:],
	}, nil
}

func (c *command) parse() error {
	return c.fs.Parse(c.args)
}

// ctx attaches the acting user for the ledger's actor resolver.
func (c *command) ctx(ctx context.Context) context.Context {
	if *c.actor == "" {
		return ctx
	}
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext())
	return appctx.WithUser(ctx, &appctx.UserContext{UserID: *c.actor})
}

func parseID(flagName, raw string) (id.ID, error) {
	if raw == "" {
		return id.Nil(), fmt.Errorf("--%s is required", flagName)
	}
	v, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), fmt.Errorf("--%s: %w", flagName, err)
	}
	return v, nil
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// --- migrate ---

func runMigrate(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("migrate: action is required (up, down, version)")
	}

	m, err := postgres.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch args[0] {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("migrate: unknown action %q", args[0])
	}
}

// --- invoice ---

func (a *app) runInvoice(ctx context.Context, args []string) error {
	cmd, err := newCommand("invoice", args)
	if err != nil {
		return err
	}
	invoiceID := cmd.fs.String("id", "", "invoice id")
	lineID := cmd.fs.String("line", "", "invoice line id")
	file := cmd.fs.String("file", "", "JSON payload path, - for stdin")
	if err := cmd.parse(); err != nil {
		return err
	}
	ctx = cmd.ctx(ctx)

	switch cmd.action {
	case "create":
		body, err := readFile(*file)
		if err != nil {
			return err
		}
		payload, err := invoice.DecodeCommand(body)
		if err != nil {
			return err
		}
		inv, err := a.invoices.Create(ctx, payload)
		if err != nil {
			return err
		}
		return printJSON(inv)

	case "edit":
		target, err := parseID("id", *invoiceID)
		if err != nil {
			return err
		}
		body, err := readFile(*file)
		if err != nil {
			return err
		}
		payload, err := invoice.DecodeCommand(body)
		if err != nil {
			return err
		}
		inv, err := a.invoices.Edit(ctx, target, payload)
		if err != nil {
			return err
		}
		return printJSON(inv)

	case "delete":
		target, err := parseID("id", *invoiceID)
		if err != nil {
			return err
		}
		if err := a.invoices.Delete(ctx, target); err != nil {
			return err
		}
		fmt.Printf("invoice %s deleted\n", target)
		return nil

	case "show":
		target, err := parseID("id", *invoiceID)
		if err != nil {
			return err
		}
		inv, err := a.invoices.Get(ctx, target)
		if err != nil {
			return err
		}
		return printJSON(inv)

	case "history":
		target, err := parseID("line", *lineID)
		if err != nil {
			return err
		}
		entries, err := a.history.ListByInvoiceLine(ctx, target)
		if err != nil {
			return err
		}
		return printJSON(entries)
	}
	return fmt.Errorf("invoice: unknown action %q", cmd.action)
}

// --- payment ---

func (a *app) runPayment(ctx context.Context, args []string) error {
	cmd, err := newCommand("payment", args)
	if err != nil {
		return err
	}
	invoiceID := cmd.fs.String("invoice", "", "invoice id")
	paymentID := cmd.fs.String("id", "", "payment id")
	file := cmd.fs.String("file", "", "JSON payload path, - for stdin")
	if err := cmd.parse(); err != nil {
		return err
	}
	ctx = cmd.ctx(ctx)

	switch cmd.action {
	case "record":
		target, err := parseID("invoice", *invoiceID)
		if err != nil {
			return err
		}
		body, err := readFile(*file)
		if err != nil {
			return err
		}
		in, err := payment.DecodeInput(body)
		if err != nil {
			return err
		}
		res, err := a.payments.Record(ctx, target, in)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "reverse":
		target, err := parseID("id", *paymentID)
		if err != nil {
			return err
		}
		res, err := a.payments.Reverse(ctx, target)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "list":
		target, err := parseID("invoice", *invoiceID)
		if err != nil {
			return err
		}
		list, err := a.payments.ListByInvoice(ctx, target)
		if err != nil {
			return err
		}
		return printJSON(list)
	}
	return fmt.Errorf("payment: unknown action %q", cmd.action)
}

// --- stock ---

func (a *app) runStock(ctx context.Context, args []string) error {
	cmd, err := newCommand("stock", args)
	if err != nil {
		return err
	}
	search := cmd.fs.String("search", "", "drug name substring")
	order := cmd.fs.String("order", "", "sort field, prefix - for descending")
	limit := cmd.fs.Int("limit", 0, "page size")
	offset := cmd.fs.Int("offset", 0, "page offset")
	drugID := cmd.fs.String("drug", "", "drug id")
	if err := cmd.parse(); err != nil {
		return err
	}

	switch cmd.action {
	case "list":
		page, err := a.stock.Browse(ctx, domain.ListFilter{
			Search:  *search,
			OrderBy: *order,
			Limit:   *limit,
			Offset:  *offset,
		})
		if err != nil {
			return err
		}
		return printJSON(page)

	case "show":
		target, err := parseID("drug", *drugID)
		if err != nil {
			return err
		}
		view, err := a.stock.Get(ctx, target)
		if err != nil {
			return err
		}
		return printJSON(view)
	}
	return fmt.Errorf("stock: unknown action %q", cmd.action)
}

// --- sequence ---

func (a *app) runSequence(ctx context.Context, args []string) error {
	cmd, err := newCommand("sequence", args)
	if err != nil {
		return err
	}
	code := cmd.fs.String("code", "barcode", "barcode or batch")
	date := cmd.fs.String("date", time.Now().UTC().Format(time.DateOnly), "scope date (YYYY-MM-DD)")
	value := cmd.fs.Int64("value", -1, "last issued counter value")
	if err := cmd.parse(); err != nil {
		return err
	}
	if cmd.action != "set" {
		return fmt.Errorf("sequence: unknown action %q", cmd.action)
	}

	var seq numerator.Config
	switch *code {
	case "barcode":
		seq = a.codes.Barcode
	case "batch":
		seq = a.codes.Batch
	default:
		return fmt.Errorf("--code must be barcode or batch")
	}

	at, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("--date: %w", err)
	}

	if err := a.sequences.SetNext(ctx, seq, at, *value); err != nil {
		return err
	}
	fmt.Printf("%s set to %d, next code %s\n", seq.Key(at), *value, seq.Format(at, *value+1))
	return nil
}

// --- params ---

func (a *app) runParams(ctx context.Context, args []string) error {
	cmd, err := newCommand("params", args)
	if err != nil {
		return err
	}
	tax := cmd.fs.String("tax", "", "tax rate percent")
	margin := cmd.fs.String("margin", "", "margin rate percent")
	if err := cmd.parse(); err != nil {
		return err
	}

	switch cmd.action {
	case "show":
		p, err := a.params.Get(ctx)
		if err != nil {
			return err
		}
		return printJSON(p)

	case "set":
		taxRate, err := decimal.NewFromString(*tax)
		if err != nil {
			return fmt.Errorf("--tax: %w", err)
		}
		marginRate, err := decimal.NewFromString(*margin)
		if err != nil {
			return fmt.Errorf("--margin: %w", err)
		}
		p := pricing.Params{TaxRate: taxRate, MarginRate: marginRate}
		if err := a.params.Set(ctx, p); err != nil {
			return err
		}
		return printJSON(p)
	}
	return fmt.Errorf("params: unknown action %q", cmd.action)
}

// --- audit ---

func (a *app) runAudit(ctx context.Context, args []string) error {
	cmd, err := newCommand("audit", args)
	if err != nil {
		return err
	}
	entity := cmd.fs.String("entity", "invoice", "entity type")
	entityID := cmd.fs.String("id", "", "entity id")
	limit := cmd.fs.Int("limit", 20, "max entries")
	if err := cmd.parse(); err != nil {
		return err
	}
	if cmd.action != "show" {
		return fmt.Errorf("audit: unknown action %q", cmd.action)
	}

	target, err := parseID("id", *entityID)
	if err != nil {
		return err
	}
	history, err := a.audit.GetEntityHistory(ctx, *entity, target, *limit)
	if err != nil {
		return err
	}
	return printJSON(history)
}
