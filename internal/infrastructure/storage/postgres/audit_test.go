package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/audit"
)

func newTestAuditService(t *testing.T) *AuditService {
	t.Helper()
	s, err := NewAuditService(nil)
	require.NoError(t, err)
	return s
}

func TestAuditService_SmallSnapshotStoredPlain(t *testing.T) {
	s := newTestAuditService(t)

	rec, err := s.newRecord(audit.Entry{
		EntityType: "invoice",
		EntityID:   id.New(),
		Action:     audit.ActionCreate,
		ActorID:    id.New(),
		Snapshot:   map[string]string{"no_invoice": "INV-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, CompressionNone, rec.CompressionAlgo)
	assert.JSONEq(t, `{"no_invoice":"INV-1"}`, string(rec.Snapshot))
	assert.Nil(t, rec.SnapshotCompressed)
	assert.False(t, id.IsNil(rec.ID))
}

func TestAuditService_LargeSnapshotRoundTrip(t *testing.T) {
	s := newTestAuditService(t)
	big := strings.Repeat("x", defaultCompressThreshold+1)

	rec, err := s.newRecord(audit.Entry{
		EntityType: "invoice",
		Action:     audit.ActionUpdate,
		Snapshot:   map[string]string{"blob": big},
	})
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, rec.CompressionAlgo)
	assert.Nil(t, rec.Snapshot)
	assert.Less(t, len(rec.SnapshotCompressed), len(big))

	require.NoError(t, s.decompress(&rec))
	assert.Contains(t, string(rec.Snapshot), big)
	assert.Nil(t, rec.SnapshotCompressed)
}

func TestAuditService_UnmarshalableSnapshot(t *testing.T) {
	s := newTestAuditService(t)
	_, err := s.newRecord(audit.Entry{Snapshot: make(chan int)})
	assert.Error(t, err)
}
