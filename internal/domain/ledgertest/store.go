// Package ledgertest provides an in-memory ledger store for service tests.
//
// Store implements every ledger repository plus tx.Manager. Transactions are
// serialized by one mutex and a failing unit of work restores the state it
// started from, so tests observe the same all-or-nothing behaviour as the
// PostgreSQL implementation.
package ledgertest

import (
	"context"
	"fmt"
	"sync"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/invoice"
	"pharmaledger/internal/domain/lot"
	"pharmaledger/internal/domain/movement"
	"pharmaledger/internal/domain/payment"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/domain/stock"
)

type txKey struct{}

type state struct {
	stocks   map[id.ID]*stock.Aggregate // by drug
	lots     map[id.ID]*lot.Detail      // by invoice line
	history  []*movement.Entry
	invoices map[id.ID]*invoice.Invoice
	lines    map[id.ID][]*invoice.Line // by invoice
	payments map[id.ID]*payment.Payment
	audit    []audit.Entry
}

func newState() *state {
	return &state{
		stocks:   map[id.ID]*stock.Aggregate{},
		lots:     map[id.ID]*lot.Detail{},
		invoices: map[id.ID]*invoice.Invoice{},
		lines:    map[id.ID][]*invoice.Line{},
		payments: map[id.ID]*payment.Payment{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.stocks {
		cp := *v
		c.stocks[k] = &cp
	}
	for k, v := range s.lots {
		cp := *v
		c.lots[k] = &cp
	}
	for _, v := range s.history {
		cp := *v
		c.history = append(c.history, &cp)
	}
	for k, v := range s.invoices {
		cp := *v
		c.invoices[k] = &cp
	}
	for k, ls := range s.lines {
		for _, v := range ls {
			cp := *v
			c.lines[k] = append(c.lines[k], &cp)
		}
	}
	for k, v := range s.payments {
		cp := *v
		c.payments[k] = &cp
	}
	c.audit = append(c.audit, s.audit...)
	return c
}

type failure struct {
	nth int
	err error
}

// Store is an in-memory ledger database.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	st *state

	drugs        map[id.ID]bool
	distributors map[id.ID]bool
	users        map[id.ID]bool
	params       *pricing.Params

	failures map[string]failure
	calls    map[string]int
	writes   int
	commits  int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		st:           newState(),
		drugs:        map[id.ID]bool{},
		distributors: map[id.ID]bool{},
		users:        map[id.ID]bool{},
		failures:     map[string]failure{},
		calls:        map[string]int{},
	}
}

var _ tx.Manager = (*Store)(nil)

// RunInTransaction implements tx.Manager. Nested calls join the outer unit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

// FailOn makes the nth call (1-based) of op return err. nth 0 fails every call.
// Ops are named "<repo>.<method>", e.g. "invoice.CreateLine".
func (s *Store) FailOn(op string, nth int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{nth: nth, err: err}
}

// ClearFailures removes every injected failure.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// call counts op and returns an injected failure. Callers hold s.mu.
func (s *Store) call(op string, write bool) error {
	s.calls[op]++
	if write {
		s.writes++
	}
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if f.nth == 0 || f.nth == s.calls[op] {
		return fmt.Errorf("%s: %w", op, f.err)
	}
	return nil
}

// Writes is the number of write calls made so far, committed or not.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Commits is the number of committed transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Calls is the number of calls made to op.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// --- master data ---

// AddDrug registers a drug and returns its id.
func (s *Store) AddDrug() id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := id.New()
	s.drugs[v] = true
	return v
}

// AddDistributor registers a distributor and returns its id.
func (s *Store) AddDistributor() id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := id.New()
	s.distributors[v] = true
	return v
}

// AddUser registers a user and returns its id.
func (s *Store) AddUser() id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := id.New()
	s.users[v] = true
	return v
}

// SetParams configures the business parameters row.
func (s *Store) SetParams(p pricing.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = &p
}

// --- inspection and outbound simulation ---

// Stock returns a copy of the drug's aggregate, or nil.
func (s *Store) Stock(drugID id.ID) *stock.Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.stocks[drugID]
	if !ok {
		return nil
	}
	cp := *row
	return &cp
}

// StockCount is the number of aggregate rows.
func (s *Store) StockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.stocks)
}

// Lot returns a copy of the invoice line's lot, or nil.
func (s *Store) Lot(invoiceLineID id.ID) *lot.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.st.lots[invoiceLineID]
	if !ok {
		return nil
	}
	cp := *d
	return &cp
}

// LotCount is the number of lot rows.
func (s *Store) LotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.lots)
}

// SetRemaining overwrites a lot's remaining quantity the way outbound
// dispensing would.
func (s *Store) SetRemaining(invoiceLineID id.ID, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.st.lots[invoiceLineID]; ok {
		d.QtyRemaining = qty
	}
}

// DropLot removes a lot, leaving its invoice line without one.
func (s *Store) DropLot(invoiceLineID id.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.lots, invoiceLineID)
}

// History returns all movement entries in append order.
func (s *Store) History() []movement.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]movement.Entry, len(s.st.history))
	for i, e := range s.st.history {
		out[i] = *e
	}
	return out
}

// InvoiceRow returns a copy of an invoice header, deleted or not.
func (s *Store) InvoiceRow(invoiceID id.ID) *invoice.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.st.invoices[invoiceID]
	if !ok {
		return nil
	}
	cp := *inv
	return &cp
}

// InvoiceCount is the number of invoice rows, deleted or not.
func (s *Store) InvoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.invoices)
}

// LineRows returns copies of all lines of an invoice, deleted or not.
func (s *Store) LineRows(invoiceID id.ID) []invoice.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]invoice.Line, 0, len(s.st.lines[invoiceID]))
	for _, l := range s.st.lines[invoiceID] {
		out = append(out, *l)
	}
	return out
}

// PaymentRow returns a copy of a payment, deleted or not.
func (s *Store) PaymentRow(paymentID id.ID) *payment.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.payments[paymentID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// AuditEntries returns the committed audit log.
func (s *Store) AuditEntries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.st.audit...)
}

// Record implements audit.Recorder.
func (s *Store) Record(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("audit.Record", true); err != nil {
		return err
	}
	s.st.audit = append(s.st.audit, e)
	return nil
}

var _ audit.Recorder = (*Store)(nil)
