package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/domain/params"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// ParamsRepo implements params.Repository over the business_parameters
// singleton row.
type ParamsRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewParamsRepo creates a new business parameters repository.
func NewParamsRepo(txm *postgres.TxManager) *ParamsRepo {
	return &ParamsRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ params.Repository = (*ParamsRepo)(nil)

func (r *ParamsRepo) getQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("tax_rate", "margin_rate").
		From("business_parameters").
		OrderBy("updated_at DESC").
		Limit(1)
}

// Get returns the current parameters.
func (r *ParamsRepo) Get(ctx context.Context) (pricing.Params, error) {
	sql, args, err := r.getQuery().ToSql()
	if err != nil {
		return pricing.Params{}, fmt.Errorf("build query: %w", err)
	}

	var p pricing.Params
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return pricing.Params{}, apperror.NewNotFound("business_parameters", "")
		}
		return pricing.Params{}, fmt.Errorf("get business parameters: %w", err)
	}
	return p, nil
}

func (r *ParamsRepo) setQuery(p pricing.Params) squirrel.InsertBuilder {
	return r.builder.
		Insert("business_parameters").
		Columns("id", "tax_rate", "margin_rate", "updated_at").
		Values(1, p.TaxRate, p.MarginRate, squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (id) DO UPDATE SET tax_rate = EXCLUDED.tax_rate, " +
			"margin_rate = EXCLUDED.margin_rate, updated_at = EXCLUDED.updated_at")
}

// Set replaces the parameters. Operators use it; the ledger only reads.
func (r *ParamsRepo) Set(ctx context.Context, p pricing.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	sql, args, err := r.setQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set business parameters: %w", err)
	}
	return nil
}
