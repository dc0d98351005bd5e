package movement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

type memRepo struct {
	rows []*Entry
}

func (m *memRepo) Insert(_ context.Context, entries []*Entry) error {
	m.rows = append(m.rows, entries...)
	return nil
}

func (m *memRepo) ListByInvoiceLine(_ context.Context, lineID id.ID) ([]*Entry, error) {
	var out []*Entry
	for _, e := range m.rows {
		if e.InvoiceLineID == lineID {
			out = append(out, e)
		}
	}
	return out, nil
}

func entry(line id.ID, status Status, qty int64) Entry {
	return Entry{StockID: id.New(), InvoiceLineID: line, Status: status, QtyPcs: qty, ActorID: id.New()}
}

func TestAppend_StampsIDAndTime(t *testing.T) {
	repo := &memRepo{}
	h := NewHistory(repo)
	line := id.New()

	require.NoError(t, h.Append(context.Background(), entry(line, StatusIn, 20)))
	require.NoError(t, h.Append(context.Background(), entry(line, StatusDeleted, 20)))

	got, err := h.ListByInvoiceLine(context.Background(), line)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, StatusIn, got[0].Status)
	assert.Equal(t, StatusDeleted, got[1].Status)
	assert.False(t, id.IsNil(got[0].ID))
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestAppendAll_RejectsWholeBatchOnInvalidEntry(t *testing.T) {
	repo := &memRepo{}
	h := NewHistory(repo)

	bad := entry(id.New(), StatusIn, 5)
	bad.ActorID = id.Nil()

	err := h.AppendAll(context.Background(), []Entry{entry(id.New(), StatusIn, 5), bad})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, repo.rows)
}

func TestEntry_Validate(t *testing.T) {
	e := entry(id.New(), "OUT", 1)
	assert.Error(t, e.Validate())
	e = entry(id.New(), StatusIn, 0)
	assert.Error(t, e.Validate())
	e = entry(id.Nil(), StatusIn, 1)
	assert.Error(t, e.Validate())
	e = entry(id.New(), StatusDeleted, 3)
	assert.NoError(t, e.Validate())
}
