package ledgertest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
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

// Stocks returns the stock.Repository view of the store.
func (s *Store) Stocks() stock.Repository { return stockRepo{s} }

// Lots returns the lot.Repository view of the store.
func (s *Store) Lots() lot.Repository { return lotRepo{s} }

// Movements returns the movement.Repository view of the store.
func (s *Store) Movements() movement.Repository { return movementRepo{s} }

// Invoices returns the invoice.Repository view of the store.
func (s *Store) Invoices() invoice.Repository { return invoiceRepo{s} }

// Payments returns the payment.Repository view of the store.
func (s *Store) Payments() payment.Repository { return paymentRepo{s} }

// References returns the reference.Repository view of the store.
func (s *Store) References() reference.Repository { return referenceRepo{s} }

// Params returns the params.Repository view of the store.
func (s *Store) Params() params.Repository { return paramsRepo{s} }

// --- stock ---

type stockRepo struct{ s *Store }

func (r stockRepo) LockByDrug(_ context.Context, drugID id.ID) (*stock.Aggregate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("stock.LockByDrug", true); err != nil {
		return nil, err
	}
	row, ok := r.s.st.stocks[drugID]
	if !ok {
		row = &stock.Aggregate{BaseEntity: entity.NewBaseEntity(), DrugID: drugID}
		r.s.st.stocks[drugID] = row
	}
	cp := *row
	return &cp, nil
}

func (r stockRepo) Save(_ context.Context, agg *stock.Aggregate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("stock.Save", true); err != nil {
		return err
	}
	cp := *agg
	r.s.st.stocks[agg.DrugID] = &cp
	return nil
}

func (r stockRepo) GetByDrug(_ context.Context, drugID id.ID) (*stock.Aggregate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("stock.GetByDrug", false); err != nil {
		return nil, err
	}
	row, ok := r.s.st.stocks[drugID]
	if !ok {
		return nil, apperror.NewNotFound("stock", drugID.String())
	}
	cp := *row
	return &cp, nil
}

func (r stockRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*stock.Aggregate], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("stock.List", false); err != nil {
		return domain.ListResult[*stock.Aggregate]{}, err
	}

	all := make([]*stock.Aggregate, 0, len(r.s.st.stocks))
	for _, row := range r.s.st.stocks {
		cp := *row
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	total := int64(len(all))
	start := min(f.Offset, len(all))
	end := min(start+f.Limit, len(all))
	return domain.ListResult[*stock.Aggregate]{
		Items:      all[start:end],
		TotalCount: total,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

func (r stockRepo) LotsByStock(_ context.Context, stockIDs []id.ID) ([]stock.LotView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("stock.LotsByStock", false); err != nil {
		return nil, err
	}

	wanted := make(map[id.ID]bool, len(stockIDs))
	for _, v := range stockIDs {
		wanted[v] = true
	}

	lineInvoice := map[id.ID]*invoice.Invoice{}
	for invID, lines := range r.s.st.lines {
		for _, l := range lines {
			lineInvoice[l.ID] = r.s.st.invoices[invID]
		}
	}

	var out []stock.LotView
	for lineID, d := range r.s.st.lots {
		if !wanted[d.StockID] {
			continue
		}
		v := stock.LotView{
			ID:           d.ID,
			StockID:      d.StockID,
			Barcode:      d.Barcode,
			NoBatch:      d.NoBatch,
			ExpiredDate:  d.ExpiredDate,
			QtyPcs:       d.QtyPcs,
			QtyBox:       d.QtyBox,
			QtyRemaining: d.QtyRemaining,
			IsInitiate:   d.IsInitiate,
		}
		if inv, ok := lineInvoice[lineID]; ok && inv != nil {
			lid, iid, no := lineID, inv.ID, inv.NoInvoice
			v.InvoiceLineID, v.InvoiceID, v.NoInvoice = &lid, &iid, &no
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out, nil
}

// --- lot ---

type lotRepo struct{ s *Store }

func (r lotRepo) Create(_ context.Context, d *lot.Detail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("lot.Create", true); err != nil {
		return err
	}
	for _, existing := range r.s.st.lots {
		if existing.Barcode == d.Barcode {
			return apperror.NewDuplicate("stock_detail", "barcode", d.Barcode)
		}
	}
	cp := *d
	r.s.st.lots[d.InvoiceLineID] = &cp
	return nil
}

func (r lotRepo) GetByInvoiceLine(_ context.Context, invoiceLineID id.ID) (*lot.Detail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("lot.GetByInvoiceLine", false); err != nil {
		return nil, err
	}
	d, ok := r.s.st.lots[invoiceLineID]
	if !ok {
		return nil, apperror.NewNotFound("stock_detail", invoiceLineID.String())
	}
	cp := *d
	return &cp, nil
}

// --- movement ---

type movementRepo struct{ s *Store }

func (r movementRepo) Insert(_ context.Context, entries []*movement.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("movement.Insert", true); err != nil {
		return err
	}
	for _, e := range entries {
		cp := *e
		r.s.st.history = append(r.s.st.history, &cp)
	}
	return nil
}

func (r movementRepo) ListByInvoiceLine(_ context.Context, invoiceLineID id.ID) ([]*movement.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("movement.ListByInvoiceLine", false); err != nil {
		return nil, err
	}
	var out []*movement.Entry
	for _, e := range r.s.st.history {
		if e.InvoiceLineID == invoiceLineID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- invoice ---

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) live(invoiceID id.ID) (*invoice.Invoice, error) {
	inv, ok := r.s.st.invoices[invoiceID]
	if !ok || inv.IsDeleted() {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	cp := *inv
	return &cp, nil
}

func (r invoiceRepo) numberTaken(no string, exclude *id.ID) bool {
	for _, inv := range r.s.st.invoices {
		if inv.IsDeleted() || inv.NoInvoice != no {
			continue
		}
		if exclude != nil && inv.ID == *exclude {
			continue
		}
		return true
	}
	return false
}

func (r invoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.Create", true); err != nil {
		return err
	}
	if r.numberTaken(inv.NoInvoice, nil) {
		return apperror.NewDuplicate("invoice", "no_invoice", inv.NoInvoice)
	}
	cp := *inv
	cp.Lines = nil
	r.s.st.invoices[inv.ID] = &cp
	return nil
}

func (r invoiceRepo) Update(_ context.Context, inv *invoice.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.Update", true); err != nil {
		return err
	}
	if _, err := r.live(inv.ID); err != nil {
		return err
	}
	if r.numberTaken(inv.NoInvoice, &inv.ID) {
		return apperror.NewDuplicate("invoice", "no_invoice", inv.NoInvoice)
	}
	cp := *inv
	cp.Lines = nil
	r.s.st.invoices[inv.ID] = &cp
	return nil
}

func (r invoiceRepo) GetByID(_ context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.GetByID", false); err != nil {
		return nil, err
	}
	return r.live(invoiceID)
}

func (r invoiceRepo) GetForUpdate(_ context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.GetForUpdate", false); err != nil {
		return nil, err
	}
	return r.live(invoiceID)
}

func (r invoiceRepo) ExistsNumber(_ context.Context, no string, exclude *id.ID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.ExistsNumber", false); err != nil {
		return false, err
	}
	return r.numberTaken(strings.TrimSpace(no), exclude), nil
}

func (r invoiceRepo) CreateLine(_ context.Context, line *invoice.Line) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.CreateLine", true); err != nil {
		return err
	}
	if _, ok := r.s.st.invoices[line.InvoiceID]; !ok {
		return apperror.NewNotFound("invoice reference", line.InvoiceID.String())
	}
	cp := *line
	r.s.st.lines[line.InvoiceID] = append(r.s.st.lines[line.InvoiceID], &cp)
	return nil
}

func (r invoiceRepo) GetLines(_ context.Context, invoiceID id.ID) ([]*invoice.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.GetLines", false); err != nil {
		return nil, err
	}
	out := []*invoice.Line{}
	for _, l := range r.s.st.lines[invoiceID] {
		if l.IsDeleted() {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

func (r invoiceRepo) SoftDelete(_ context.Context, invoiceID, actor id.ID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.SoftDelete", true); err != nil {
		return err
	}
	inv, ok := r.s.st.invoices[invoiceID]
	if !ok || inv.IsDeleted() {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	inv.DeletedAt, inv.DeletedBy = &at, &actor
	inv.State = invoice.StateDeleted
	for _, l := range r.s.st.lines[invoiceID] {
		if !l.IsDeleted() {
			l.DeletedAt, l.DeletedBy = &at, &actor
		}
	}
	return nil
}

func (r invoiceRepo) UpdatePayment(_ context.Context, invoiceID id.ID, totalPay decimal.Decimal, status string, actor id.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("invoice.UpdatePayment", true); err != nil {
		return err
	}
	inv, ok := r.s.st.invoices[invoiceID]
	if !ok || inv.IsDeleted() {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	inv.TotalPay = totalPay
	inv.Status = status
	inv.StampUpdated(actor)
	inv.Touch()
	return nil
}

// --- payment ---

type paymentRepo struct{ s *Store }

func (r paymentRepo) live(paymentID id.ID) (*payment.Payment, error) {
	p, ok := r.s.st.payments[paymentID]
	if !ok || p.IsDeleted() {
		return nil, apperror.NewNotFound("payment", paymentID.String())
	}
	cp := *p
	return &cp, nil
}

func (r paymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("payment.Create", true); err != nil {
		return err
	}
	cp := *p
	r.s.st.payments[p.ID] = &cp
	return nil
}

func (r paymentRepo) GetByID(_ context.Context, paymentID id.ID) (*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("payment.GetByID", false); err != nil {
		return nil, err
	}
	return r.live(paymentID)
}

func (r paymentRepo) GetForUpdate(_ context.Context, paymentID id.ID) (*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("payment.GetForUpdate", false); err != nil {
		return nil, err
	}
	return r.live(paymentID)
}

func (r paymentRepo) SoftDelete(_ context.Context, paymentID, actor id.ID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("payment.SoftDelete", true); err != nil {
		return err
	}
	p, ok := r.s.st.payments[paymentID]
	if !ok || p.IsDeleted() {
		return apperror.NewNotFound("payment", paymentID.String())
	}
	p.DeletedAt, p.DeletedBy = &at, &actor
	return nil
}

func (r paymentRepo) ListByInvoice(_ context.Context, invoiceID id.ID) ([]*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("payment.ListByInvoice", false); err != nil {
		return nil, err
	}
	out := []*payment.Payment{}
	for _, p := range r.s.st.payments {
		if p.InvoiceID == invoiceID && !p.IsDeleted() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- reference and params ---

type referenceRepo struct{ s *Store }

func (r referenceRepo) DrugExists(_ context.Context, drugID id.ID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.drugs[drugID], r.s.call("reference.DrugExists", false)
}

func (r referenceRepo) DistributorExists(_ context.Context, distributorID id.ID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.distributors[distributorID], r.s.call("reference.DistributorExists", false)
}

func (r referenceRepo) UserExists(_ context.Context, userID id.ID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[userID], r.s.call("reference.UserExists", false)
}

type paramsRepo struct{ s *Store }

func (r paramsRepo) Get(_ context.Context) (pricing.Params, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.call("params.Get", false); err != nil {
		return pricing.Params{}, err
	}
	if r.s.params == nil {
		return pricing.Params{}, apperror.NewNotFound("business_parameters", "")
	}
	return *r.s.params, nil
}
