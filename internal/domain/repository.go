// Package domain provides core business logic interfaces and types shared by
// the ledger packages.
package domain

import (
	"context"
	"strings"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs a substring search on the listing's searchable fields
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g., "total_qty", "-updated_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// PageLimits bounds the page size a caller may request.
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits returns the built-in page size bounds.
func DefaultPageLimits() PageLimits {
	return PageLimits{Default: 20, Max: 100}
}

// Normalize applies page limits: a missing limit becomes the default and an
// oversized one is clamped to the maximum.
func (f ListFilter) Normalize(limits PageLimits) ListFilter {
	if f.Limit <= 0 {
		f.Limit = limits.Default
	}
	if limits.Max > 0 && f.Limit > limits.Max {
		f.Limit = limits.Max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.OrderBy = strings.TrimSpace(f.OrderBy)
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ParseOrderBy validates "field" or "-field" against an allow-list and returns
// an ORDER BY clause. An empty input yields fallback.
func ParseOrderBy(orderBy string, allowed []string, fallback string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return fallback, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	for _, col := range allowed {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("allowed", allowed)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	AfterCreate HookEvent = "after_create"
	AfterUpdate HookEvent = "after_update"
	AfterDelete HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event. The first failure stops the chain.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
