// Package params provides the process-wide business parameters.
package params

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/domain/pricing"
)

// Repository reads the business parameters row.
type Repository interface {
	// Get returns the current parameters. NotFound if none are configured.
	Get(ctx context.Context) (pricing.Params, error)
}

// Provider hands out business parameters. It never caches: every invoice
// operation sees the values current at its start.
type Provider struct {
	repo Repository
}

// NewProvider creates a new parameters provider.
func NewProvider(repo Repository) *Provider {
	return &Provider{repo: repo}
}

// Current reads and validates the parameters.
func (p *Provider) Current(ctx context.Context) (pricing.Params, error) {
	params, err := p.repo.Get(ctx)
	if err != nil {
		if apperror.IsAppError(err) {
			return pricing.Params{}, err
		}
		return pricing.Params{}, fmt.Errorf("read business parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return pricing.Params{}, err
	}
	return params, nil
}
