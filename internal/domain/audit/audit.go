// Package audit defines how ledger services hand entity snapshots to the audit log.
package audit

import (
	"context"

	"pharmaledger/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionPayment        Action = "payment"
	ActionPaymentReverse Action = "payment_reverse"
)

// Entry is one audited change. Snapshot is serialised as JSON by the recorder.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	ActorID    id.ID
	Snapshot   any
}

// Recorder persists audit entries. Implementations write through the
// transaction in ctx so an entry commits or rolls back with its change.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, entry Entry) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, entry Entry) error { return f(ctx, entry) }
