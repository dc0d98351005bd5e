// Package pricing computes acquisition cost and sale price from business parameters.
package pricing

import (
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
)

var hundred = decimal.NewFromInt(100)

// Params are the business parameters the pricing formulas read.
// Rates are percentages: 11 means 11%.
type Params struct {
	TaxRate    decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	MarginRate decimal.Decimal `db:"margin_rate" json:"margin_rate"`
}

// Validate rejects negative rates.
func (p Params) Validate() error {
	if p.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate must not be negative").
			WithDetail("tax_rate", p.TaxRate.String())
	}
	if p.MarginRate.IsNegative() {
		return apperror.NewValidation("margin rate must not be negative").
			WithDetail("margin_rate", p.MarginRate.String())
	}
	return nil
}

// AcquisitionCost is the box price with tax: p + p*tax/100.
func AcquisitionCost(unitBoxPrice, taxRatePercent decimal.Decimal) decimal.Decimal {
	return unitBoxPrice.Add(unitBoxPrice.Mul(taxRatePercent).Div(hundred))
}

// SalePrice is cost plus margin, rounded half away from zero to a whole
// currency unit.
func SalePrice(cost, marginRatePercent decimal.Decimal) decimal.Decimal {
	return cost.Add(cost.Mul(marginRatePercent).Div(hundred)).Round(0)
}

// Cost applies AcquisitionCost with p's tax rate.
func (p Params) Cost(unitBoxPrice decimal.Decimal) decimal.Decimal {
	return AcquisitionCost(unitBoxPrice, p.TaxRate)
}

// Sale applies SalePrice with p's margin rate.
func (p Params) Sale(cost decimal.Decimal) decimal.Decimal {
	return SalePrice(cost, p.MarginRate)
}
