// Package entity provides the building blocks embedded by ledger entities.
package entity

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains fields shared by every persisted row.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID and timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// Audited records which operator created and last changed a row.
type Audited struct {
	CreatedBy id.ID  `db:"created_by" json:"createdBy"`
	UpdatedBy *id.ID `db:"updated_by" json:"updatedBy,omitempty"`
}

// StampCreated sets both audit references to the creating actor.
func (a *Audited) StampCreated(actor id.ID) {
	a.CreatedBy = actor
	a.UpdatedBy = &actor
}

// StampUpdated records the actor of the latest change.
func (a *Audited) StampUpdated(actor id.ID) {
	a.UpdatedBy = &actor
}
