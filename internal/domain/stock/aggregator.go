package stock

import (
	"context"
	"fmt"

	"pharmaledger/internal/domain/pricing"
	"pharmaledger/pkg/logger"
)

// Aggregator applies receipts to aggregate stock.
// It must run inside the caller's transaction so the row lock taken by
// LockByDrug is held until the whole invoice commits.
type Aggregator struct {
	repo Repository
}

// NewAggregator creates a new aggregator.
func NewAggregator(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// UpsertReceipt locks (or lazily creates) the drug's aggregate, adds the
// received pieces and reprices it under the monotonic-cost policy.
func (a *Aggregator) UpsertReceipt(ctx context.Context, r Receipt, params pricing.Params) (*Aggregate, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	agg, err := a.repo.LockByDrug(ctx, r.DrugID)
	if err != nil {
		return nil, fmt.Errorf("lock stock for drug %s: %w", r.DrugID, err)
	}

	cost := params.Cost(r.UnitBoxPrice)
	agg.ApplyReceipt(r.QtyPcs(), cost, params)

	if err := a.repo.Save(ctx, agg); err != nil {
		return nil, fmt.Errorf("save stock %s: %w", agg.ID, err)
	}

	logger.Debug(ctx, "stock receipt applied",
		"stock_id", agg.ID,
		"drug_id", r.DrugID,
		"qty_pcs", r.QtyPcs(),
		"cost", cost,
		"total_qty", agg.TotalQty,
		"price_buy", agg.PriceBuy,
	)

	return agg, nil
}
