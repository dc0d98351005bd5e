package invoice

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/core/validate"
)

// LineStatusNew marks an edit payload line that must be received into stock.
const LineStatusNew = "new"

// Command is an invoice header plus its line items as submitted by a caller.
type Command struct {
	NoInvoice      string          `json:"no_invoice" validate:"required,max=64"`
	InvoiceDate    types.Date      `json:"invoice_date" validate:"required"`
	ReceiveDate    types.Date      `json:"receive_date" validate:"required"`
	DueDate        types.Date      `json:"due_date"`
	DistributorUID string          `json:"distributor_uid" validate:"required,uuid"`
	TotalInvoice   decimal.Decimal `json:"total_invoice" validate:"gte=0"`
	Status         string          `json:"status" validate:"max=32"`

	Lines Lines `json:"invoice_details" validate:"dive"`
}

// LineInput is one submitted line item.
type LineInput struct {
	DrugUID         string          `json:"drug_uid" validate:"required,uuid"`
	NoBatch         string          `json:"no_batch" validate:"max=64"`
	ExpiredDate     types.Date      `json:"expired_date" validate:"required"`
	QtyPcs          int64           `json:"qty_pcs" validate:"gt=0"`
	QtyBox          int64           `json:"qty_box" validate:"gt=0"`
	PriceBox        decimal.Decimal `json:"price_box" validate:"gte=0"`
	TotalPrice      decimal.Decimal `json:"total_price" validate:"gte=0"`
	Discount        decimal.Decimal `json:"discount" validate:"gte=0"`
	DiscountNominal decimal.Decimal `json:"discount_nominal" validate:"gte=0"`
	Ppn             decimal.Decimal `json:"ppn" validate:"gte=0"`
	PpnNominal      decimal.Decimal `json:"ppn_nominal" validate:"gte=0"`
	Status          string          `json:"status"`
}

// IsNew reports whether an edit must receive this line into stock.
func (l LineInput) IsNew() bool {
	return strings.EqualFold(strings.TrimSpace(l.Status), LineStatusNew)
}

func (l LineInput) drugID() id.ID {
	v, _ := id.Parse(l.DrugUID)
	return v
}

// Lines decodes from either a JSON array or a JSON string holding one,
// which is how form-based callers embed line items.
type Lines []LineInput

// UnmarshalJSON implements json.Unmarshaler.
func (ls *Lines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var embedded string
		if err := json.Unmarshal(data, &embedded); err != nil {
			return err
		}
		data = bytes.TrimSpace([]byte(embedded))
		if len(data) == 0 {
			*ls = nil
			return nil
		}
	}

	var items []LineInput
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*ls = items
	return nil
}

// ParseLines decodes a JSON-encoded line item array.
func ParseLines(raw string) (Lines, error) {
	var ls Lines
	if err := ls.UnmarshalJSON([]byte(raw)); err != nil {
		return nil, apperror.NewValidation("invoice_details is not a valid line item array").WithCause(err)
	}
	return ls, nil
}

// DecodeCommand decodes a JSON invoice payload.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, apperror.NewValidation("malformed invoice payload").WithCause(err)
	}
	return cmd, nil
}

// Validate checks field rules of the header and every line.
func (c Command) Validate() error {
	return validate.Struct(c)
}

func (c Command) distributorID() id.ID {
	v, _ := id.Parse(c.DistributorUID)
	return v
}

// newLines returns the lines an edit must receive.
func (c Command) newLines() []LineInput {
	var out []LineInput
	for _, l := range c.Lines {
		if l.IsNew() {
			out = append(out, l)
		}
	}
	return out
}

func drugIDs(lines []LineInput) []id.ID {
	ids := make([]id.ID, len(lines))
	for i, l := range lines {
		ids[i] = l.drugID()
	}
	return ids
}

// applyHeader copies header fields onto inv. Status is only replaced when given.
func (c Command) applyHeader(inv *Invoice) {
	inv.NoInvoice = strings.TrimSpace(c.NoInvoice)
	inv.InvoiceDate = c.InvoiceDate
	inv.ReceiveDate = c.ReceiveDate
	inv.DueDate = c.DueDate
	inv.DistributorID = c.distributorID()
	inv.TotalInvoice = c.TotalInvoice
	if s := strings.TrimSpace(c.Status); s != "" {
		inv.Status = s
	}
}

func (l LineInput) toLine(invoiceID id.ID, lineNo int, actor id.ID) *Line {
	return &Line{
		ID:              id.New(),
		InvoiceID:       invoiceID,
		LineNo:          lineNo,
		DrugID:          l.drugID(),
		NoBatch:         strings.TrimSpace(l.NoBatch),
		ExpiredDate:     l.ExpiredDate,
		QtyPcs:          l.QtyPcs,
		QtyBox:          l.QtyBox,
		PriceBox:        l.PriceBox,
		TotalPrice:      l.TotalPrice,
		Discount:        l.Discount,
		DiscountNominal: l.DiscountNominal,
		Ppn:             l.Ppn,
		PpnNominal:      l.PpnNominal,
		CreatedBy:       actor,
	}
}
