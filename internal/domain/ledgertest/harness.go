package ledgertest

import (
	"context"

	"github.com/shopspring/decimal"

	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/invoice"
	"pharmaledger/internal/domain/lot"
	"pharmaledger/internal/domain/movement"
	"pharmaledger/internal/domain/params"
	"pharmaledger/internal/domain/payment"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/domain/reference"
	"pharmaledger/internal/domain/stock"
)

// DefaultParams are 11% tax and 20% margin.
var DefaultParams = pricing.Params{
	TaxRate:    decimal.NewFromInt(11),
	MarginRate: decimal.NewFromInt(20),
}

// Harness wires the ledger services over one Store.
type Harness struct {
	Store       *Store
	Seq         *numerator.MockGenerator
	Processor   *invoice.Processor
	Payments    *payment.Tracker
	Stock       *stock.Service
	Lots        *lot.Ledger
	History     *movement.History
	Actor       id.ID
	Distributor id.ID
}

// NewHarness creates a store with one user, one distributor and default
// parameters, and wires every service to it with auditing enabled.
func NewHarness() *Harness {
	s := New()
	s.SetParams(DefaultParams)

	seq := &numerator.MockGenerator{}
	lots := lot.NewLedger(s.Lots(), seq, lot.DefaultCodes())
	history := movement.NewHistory(s.Movements())
	actors := reference.NewContextActorResolver(s.References())

	proc := invoice.NewProcessor(invoice.Config{
		Repo:       s.Invoices(),
		TxManager:  s,
		Stock:      stock.NewAggregator(s.Stocks()),
		Lots:       lots,
		History:    history,
		References: reference.NewChecker(s.References()),
		Actors:     actors,
		Params:     params.NewProvider(s.Params()),
	})
	proc.RegisterAudit(s)

	return &Harness{
		Store:       s,
		Seq:         seq,
		Processor:   proc,
		Payments:    payment.NewTracker(s.Payments(), s.Invoices(), s, actors, s),
		Stock:       stock.NewService(s.Stocks(), domain.DefaultPageLimits()),
		Lots:        lots,
		History:     history,
		Actor:       s.AddUser(),
		Distributor: s.AddDistributor(),
	}
}

// Ctx returns a context acting as the harness user.
func (h *Harness) Ctx() context.Context {
	return h.As(h.Actor)
}

// As returns a context acting as actor.
func (h *Harness) As(actor id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: actor.String()})
}
