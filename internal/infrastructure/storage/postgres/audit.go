package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/audit"
)

const auditTable = "sys_audit_log"

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the snapshot size above which it is stored compressed.
const defaultCompressThreshold = 10 * 1024

// AuditRecord is a single row of the audit log.
type AuditRecord struct {
	ID                 id.ID           `db:"id"`
	EntityType         string          `db:"entity_type"`
	EntityID           id.ID           `db:"entity_id"`
	Action             audit.Action    `db:"action"`
	ActorID            id.ID           `db:"actor_id"`
	Snapshot           json.RawMessage `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AuditService writes entity snapshots to the audit log through the
// transaction in ctx, so an entry commits or rolls back with its change.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Record implements audit.Recorder.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	rec, err := s.newRecord(entry)
	if err != nil {
		return err
	}

	sql := `
		INSERT INTO ` + auditTable + ` (
			id, entity_type, entity_id, action, actor_id,
			snapshot, snapshot_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		rec.ID, rec.EntityType, rec.EntityID, rec.Action, rec.ActorID,
		rec.Snapshot, rec.SnapshotCompressed, rec.CompressionAlgo, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// newRecord serialises the snapshot and compresses it when large.
func (s *AuditService) newRecord(entry audit.Entry) (AuditRecord, error) {
	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("marshal audit snapshot: %w", err)
	}

	rec := AuditRecord{
		ID:              id.New(),
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          entry.Action,
		ActorID:         entry.ActorID,
		Snapshot:        snapshot,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	if len(snapshot) > s.compressThreshold {
		rec.SnapshotCompressed = s.encoder.EncodeAll(snapshot, nil)
		rec.Snapshot = nil
		rec.CompressionAlgo = CompressionZstd
	}
	return rec, nil
}

// decompress restores a compressed snapshot in place.
func (s *AuditService) decompress(rec *AuditRecord) error {
	if rec.CompressionAlgo != CompressionZstd || len(rec.SnapshotCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(rec.SnapshotCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	rec.Snapshot = raw
	rec.SnapshotCompressed = nil
	return nil
}

// GetEntityHistory retrieves the audit trail of an entity, newest first.
func (s *AuditService) GetEntityHistory(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	limit int,
) ([]AuditRecord, error) {
	sql := `
		SELECT id, entity_type, entity_id, action, actor_id,
			   snapshot, snapshot_compressed, compression_algo, created_at
		FROM ` + auditTable + `
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditRecord
	for rows.Next() {
		var e AuditRecord
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorID,
			&e.Snapshot, &e.SnapshotCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := s.decompress(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
