package catalog_repo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/pricing"
)

func TestReferenceRepo_ExistsQuerySkipsDeleted(t *testing.T) {
	repo := NewReferenceRepo(nil)
	drug := id.New()

	sql, args, err := repo.existsQuery("drugs", drug).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS ( SELECT 1 FROM drugs WHERE deleted_at IS NULL AND id = $1 )", sql)
	assert.Equal(t, []any{drug.String()}, args)
}

func TestParamsRepo_Queries(t *testing.T) {
	repo := NewParamsRepo(nil)

	sql, _, err := repo.getQuery().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT tax_rate, margin_rate FROM business_parameters ORDER BY updated_at DESC LIMIT 1", sql)

	sql, args, err := repo.setQuery(pricing.Params{
		TaxRate:    decimal.NewFromInt(11),
		MarginRate: decimal.NewFromInt(20),
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO business_parameters (id,tax_rate,margin_rate,updated_at) VALUES ($1,$2,$3,NOW())")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE")
	assert.Len(t, args, 3)
}

func TestParamsRepo_SetRejectsNegativeRates(t *testing.T) {
	repo := NewParamsRepo(nil)
	err := repo.Set(context.Background(), pricing.Params{TaxRate: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}
