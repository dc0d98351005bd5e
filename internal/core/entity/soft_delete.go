package entity

import (
	"time"

	"pharmaledger/internal/core/id"
)

// SoftDeletable marks rows that are hidden instead of removed.
// Queries of the live set filter on deleted_at IS NULL.
type SoftDeletable struct {
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	DeletedBy *id.ID     `db:"deleted_by" json:"deletedBy,omitempty"`
}

// IsDeleted returns true if the row has been soft-deleted.
func (s *SoftDeletable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted sets the deletion timestamp and actor.
func (s *SoftDeletable) MarkDeleted(actor id.ID) {
	now := time.Now().UTC()
	s.DeletedAt = &now
	s.DeletedBy = &actor
}
