package stock

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// memRepo keeps aggregates in memory. LockByDrug holds a per-drug mutex
// until Save, the way a row lock is held until commit.
type memRepo struct {
	mu    sync.Mutex
	rows  map[id.ID]*Aggregate
	locks map[id.ID]*sync.Mutex
	lots  []LotView
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[id.ID]*Aggregate{}, locks: map[id.ID]*sync.Mutex{}}
}

func (m *memRepo) lockFor(drugID id.ID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[drugID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[drugID] = l
	}
	return l
}

func (m *memRepo) LockByDrug(_ context.Context, drugID id.ID) (*Aggregate, error) {
	m.lockFor(drugID).Lock()
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[drugID]
	if !ok {
		row = &Aggregate{DrugID: drugID}
		row.ID = id.New()
		m.rows[drugID] = row
	}
	cp := *row
	return &cp, nil
}

func (m *memRepo) Save(_ context.Context, agg *Aggregate) error {
	m.mu.Lock()
	cp := *agg
	m.rows[agg.DrugID] = &cp
	m.mu.Unlock()
	m.lockFor(agg.DrugID).Unlock()
	return nil
}

func (m *memRepo) GetByDrug(_ context.Context, drugID id.ID) (*Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[drugID]
	if !ok {
		return nil, apperror.NewNotFound("stock", drugID)
	}
	cp := *row
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*Aggregate], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*Aggregate, 0, len(m.rows))
	for _, r := range m.rows {
		cp := *r
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TotalQty > all[j].TotalQty })
	res := domain.ListResult[*Aggregate]{TotalCount: int64(len(all)), Limit: f.Limit, Offset: f.Offset}
	end := f.Offset + f.Limit
	if f.Offset < len(all) {
		if end > len(all) {
			end = len(all)
		}
		res.Items = all[f.Offset:end]
	}
	return res, nil
}

func (m *memRepo) LotsByStock(_ context.Context, ids []id.ID) ([]LotView, error) {
	want := map[id.ID]bool{}
	for _, i := range ids {
		want[i] = true
	}
	var out []LotView
	for _, l := range m.lots {
		if want[l.StockID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func receipt(drugID id.ID, pcs, box int64, price int64) Receipt {
	return Receipt{DrugID: drugID, QtyPcsPerBox: pcs, QtyBox: box, UnitBoxPrice: decimal.NewFromInt(price)}
}

func TestUpsertReceipt_Scenario(t *testing.T) {
	repo := newMemRepo()
	agg := NewAggregator(repo)
	ctx := context.Background()
	drug := id.New()

	first, err := agg.UpsertReceipt(ctx, receipt(drug, 10, 2, 10000), params)
	require.NoError(t, err)
	assert.Equal(t, int64(20), first.TotalQty)
	assert.Equal(t, "11100", first.PriceBuy.String())
	assert.Equal(t, "13320", first.Price.String())
	assert.Equal(t, "0", first.PriceManual.String())

	second, err := agg.UpsertReceipt(ctx, receipt(drug, 10, 1, 9000), params)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one aggregate per drug")
	assert.Equal(t, int64(30), second.TotalQty)
	assert.Equal(t, "11100", second.PriceBuy.String())
	assert.Equal(t, "13320", second.Price.String())
}

func TestUpsertReceipt_RejectsInvalidReceipt(t *testing.T) {
	repo := newMemRepo()
	_, err := NewAggregator(repo).UpsertReceipt(context.Background(), receipt(id.New(), 0, 1, 1), params)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, repo.rows)
}

func TestUpsertReceipt_ConcurrentReceiptsNeverLoseUpdates(t *testing.T) {
	repo := newMemRepo()
	agg := NewAggregator(repo)
	drug := id.New()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := agg.UpsertReceipt(context.Background(), receipt(drug, 1, 2, int64(1000+i)), params)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	row, err := repo.GetByDrug(context.Background(), drug)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*2), row.TotalQty)
	assert.Equal(t, params.Cost(decimal.NewFromInt(1000+workers-1)).String(), row.PriceBuy.String())
}

func TestService_BrowseNestsLots(t *testing.T) {
	repo := newMemRepo()
	agg := NewAggregator(repo)
	ctx := context.Background()
	a, b := id.New(), id.New()

	sa, err := agg.UpsertReceipt(ctx, receipt(a, 10, 3, 100), params)
	require.NoError(t, err)
	_, err = agg.UpsertReceipt(ctx, receipt(b, 10, 1, 100), params)
	require.NoError(t, err)

	no := "INV-1"
	repo.lots = []LotView{
		{ID: id.New(), StockID: sa.ID, Barcode: "BRC20261015001", QtyPcs: 30, NoInvoice: &no},
	}

	svc := NewService(repo, domain.PageLimits{Default: 1, Max: 10})
	page, err := svc.Browse(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, sa.ID, page.Items[0].ID)
	require.Len(t, page.Items[0].Lots, 1)
	assert.Equal(t, "INV-1", *page.Items[0].Lots[0].NoInvoice)

	page, err = svc.Browse(ctx, domain.ListFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotNil(t, page.Items[0].Lots)
	assert.Empty(t, page.Items[0].Lots)

	_, err = svc.Browse(ctx, domain.ListFilter{OrderBy: "drug_name"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_Get(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, domain.DefaultPageLimits())

	_, err := svc.Get(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))

	drug := id.New()
	_, err = NewAggregator(repo).UpsertReceipt(context.Background(), receipt(drug, 5, 2, 100), params)
	require.NoError(t, err)

	v, err := svc.Get(context.Background(), drug)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.TotalQty)
}
