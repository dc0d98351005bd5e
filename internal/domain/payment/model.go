// Package payment records payments against purchase invoices and keeps the
// invoice's paid total and status in step with them.
package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/core/validate"
	"pharmaledger/internal/domain/invoice"
)

// Payment is one payment towards an invoice.
type Payment struct {
	ID        id.ID           `db:"id" json:"uid"`
	InvoiceID id.ID           `db:"invoice_id" json:"invoice_uid"`
	PayDate   types.Date      `db:"pay_date" json:"pay_date"`
	Amount    decimal.Decimal `db:"total_pay" json:"total_pay"`
	CreatedBy id.ID           `db:"created_by" json:"created_by"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`

	entity.SoftDeletable
}

// Input is a payment as submitted by a caller.
type Input struct {
	PayDate types.Date      `json:"pay_date" validate:"required"`
	Amount  decimal.Decimal `json:"total_pay" validate:"gt=0"`
}

// Validate checks field rules.
func (in Input) Validate() error {
	return validate.Struct(in)
}

// DecodeInput decodes a JSON payment payload.
func DecodeInput(data []byte) (Input, error) {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, apperror.NewValidation("malformed payment payload").WithCause(err)
	}
	return in, nil
}

// Result carries the payment and the invoice state it produced.
type Result struct {
	Payment *Payment         `json:"payment"`
	Invoice *invoice.Invoice `json:"invoice"`
}
