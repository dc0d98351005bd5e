package stock

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Service is the read side of aggregate stock.
type Service struct {
	repo   Repository
	limits domain.PageLimits
}

// NewService creates a new stock read service.
func NewService(repo Repository, limits domain.PageLimits) *Service {
	return &Service{repo: repo, limits: limits}
}

// Browse returns a page of aggregates with their lots nested.
func (s *Service) Browse(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*View], error) {
	filter = filter.Normalize(s.limits)
	if _, err := domain.ParseOrderBy(filter.OrderBy, SortFields, DefaultOrder); err != nil {
		return domain.ListResult[*View]{}, err
	}

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*View]{}, fmt.Errorf("list stock: %w", err)
	}

	views, err := s.attachLots(ctx, page.Items)
	if err != nil {
		return domain.ListResult[*View]{}, err
	}

	return domain.ListResult[*View]{
		Items:      views,
		TotalCount: page.TotalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Get returns one drug's aggregate with its lots.
func (s *Service) Get(ctx context.Context, drugID id.ID) (*View, error) {
	agg, err := s.repo.GetByDrug(ctx, drugID)
	if err != nil {
		return nil, err
	}
	views, err := s.attachLots(ctx, []*Aggregate{agg})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) attachLots(ctx context.Context, aggs []*Aggregate) ([]*View, error) {
	views := make([]*View, 0, len(aggs))
	if len(aggs) == 0 {
		return views, nil
	}

	ids := make([]id.ID, len(aggs))
	for i, a := range aggs {
		ids[i] = a.ID
	}

	lots, err := s.repo.LotsByStock(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}

	byStock := make(map[id.ID][]LotView, len(aggs))
	for _, l := range lots {
		byStock[l.StockID] = append(byStock[l.StockID], l)
	}

	for _, a := range aggs {
		lots := byStock[a.ID]
		if lots == nil {
			lots = []LotView{}
		}
		views = append(views, &View{Aggregate: a, Lots: lots})
	}
	return views, nil
}
