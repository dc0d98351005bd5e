package stock

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Repository defines data access for aggregate stock rows.
type Repository interface {
	// LockByDrug returns the drug's aggregate locked FOR UPDATE until the end
	// of the enclosing transaction, creating an empty row first if needed.
	// Concurrent callers for the same drug are serialised by the row lock.
	LockByDrug(ctx context.Context, drugID id.ID) (*Aggregate, error)

	// Save writes quantity and prices of a locked aggregate.
	Save(ctx context.Context, agg *Aggregate) error

	// GetByDrug returns the aggregate without locking. NotFound if absent.
	GetByDrug(ctx context.Context, drugID id.ID) (*Aggregate, error)

	// List returns a page of aggregates.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Aggregate], error)

	// LotsByStock returns the lots of the given aggregates with invoice references.
	LotsByStock(ctx context.Context, stockIDs []id.ID) ([]LotView, error)
}
