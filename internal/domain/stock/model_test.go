package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/pricing"
)

var params = pricing.Params{TaxRate: decimal.NewFromInt(11), MarginRate: decimal.NewFromInt(20)}

func TestApplyReceipt_FirstReceipt(t *testing.T) {
	agg := &Aggregate{}
	assert.False(t, agg.IsInitialized())

	agg.ApplyReceipt(20, params.Cost(decimal.NewFromInt(10000)), params)

	require.True(t, agg.IsInitialized())
	assert.Equal(t, int64(20), agg.TotalQty)
	assert.Equal(t, "11100", agg.PriceBuy.String())
	assert.Equal(t, "13320", agg.Price.String())
	assert.True(t, agg.PriceManual.IsZero())
}

func TestApplyReceipt_MonotonicCost(t *testing.T) {
	agg := &Aggregate{PriceManual: decimal.NewFromInt(15000)}
	agg.ApplyReceipt(20, params.Cost(decimal.NewFromInt(10000)), params)

	// Cheaper purchase: cost basis and sale price hold.
	agg.ApplyReceipt(10, params.Cost(decimal.NewFromInt(9000)), params)
	assert.Equal(t, int64(30), agg.TotalQty)
	assert.Equal(t, "11100", agg.PriceBuy.String())
	assert.Equal(t, "13320", agg.Price.String())

	// Dearer purchase: cost basis rises.
	agg.ApplyReceipt(5, params.Cost(decimal.NewFromInt(12000)), params)
	assert.Equal(t, int64(35), agg.TotalQty)
	assert.Equal(t, "13320", agg.PriceBuy.String())
	assert.Equal(t, "15984", agg.Price.String())

	assert.Equal(t, "15000", agg.PriceManual.String(), "manual price is an operator override")
}

func TestReceipt_Validate(t *testing.T) {
	ok := Receipt{DrugID: id.New(), QtyPcsPerBox: 10, QtyBox: 2, UnitBoxPrice: decimal.NewFromInt(1)}
	require.NoError(t, ok.Validate())
	assert.Equal(t, int64(20), ok.QtyPcs())

	bad := []Receipt{
		{QtyPcsPerBox: 1, QtyBox: 1},
		{DrugID: id.New(), QtyPcsPerBox: 0, QtyBox: 1},
		{DrugID: id.New(), QtyPcsPerBox: 1, QtyBox: -1},
		{DrugID: id.New(), QtyPcsPerBox: 1, QtyBox: 1, UnitBoxPrice: decimal.NewFromInt(-5)},
	}
	for _, r := range bad {
		assert.True(t, apperror.HasCode(r.Validate(), apperror.CodeValidation))
	}
}
