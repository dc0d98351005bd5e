package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
)

func TestNewBaseEntity(t *testing.T) {
	b := NewBaseEntity()
	assert.False(t, id.IsNil(b.ID))
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	before := b.UpdatedAt
	b.Touch()
	assert.False(t, b.UpdatedAt.Before(before))
}

func TestAudited(t *testing.T) {
	actor := id.New()
	var a Audited
	a.StampCreated(actor)
	assert.Equal(t, actor, a.CreatedBy)
	require.NotNil(t, a.UpdatedBy)
	assert.Equal(t, actor, *a.UpdatedBy)

	other := id.New()
	a.StampUpdated(other)
	assert.Equal(t, actor, a.CreatedBy)
	assert.Equal(t, other, *a.UpdatedBy)
}

func TestSoftDeletable(t *testing.T) {
	var s SoftDeletable
	assert.False(t, s.IsDeleted())

	actor := id.New()
	s.MarkDeleted(actor)
	assert.True(t, s.IsDeleted())
	assert.Equal(t, actor, *s.DeletedBy)
}
