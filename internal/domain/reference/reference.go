// Package reference resolves master data owned outside the ledger: drugs,
// distributors and the acting user.
package reference

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
)

// Repository answers existence lookups against live (non-deleted) master data.
type Repository interface {
	DrugExists(ctx context.Context, drugID id.ID) (bool, error)
	DistributorExists(ctx context.Context, distributorID id.ID) (bool, error)
	UserExists(ctx context.Context, userID id.ID) (bool, error)
}

// Checker turns missing references into NotFound errors.
type Checker struct {
	repo Repository
}

// NewChecker creates a new reference checker.
func NewChecker(repo Repository) *Checker {
	return &Checker{repo: repo}
}

// RequireDistributor fails with NotFound unless the distributor exists.
func (c *Checker) RequireDistributor(ctx context.Context, distributorID id.ID) error {
	ok, err := c.repo.DistributorExists(ctx, distributorID)
	if err != nil {
		return fmt.Errorf("check distributor %s: %w", distributorID, err)
	}
	if !ok {
		return apperror.NewNotFound("distributor", distributorID.String())
	}
	return nil
}

// RequireDrugs fails with NotFound on the first drug that does not exist.
// Each distinct id is looked up once.
func (c *Checker) RequireDrugs(ctx context.Context, drugIDs []id.ID) error {
	seen := make(map[id.ID]struct{}, len(drugIDs))
	for _, drugID := range drugIDs {
		if _, dup := seen[drugID]; dup {
			continue
		}
		seen[drugID] = struct{}{}

		ok, err := c.repo.DrugExists(ctx, drugID)
		if err != nil {
			return fmt.Errorf("check drug %s: %w", drugID, err)
		}
		if !ok {
			return apperror.NewNotFound("drug", drugID.String())
		}
	}
	return nil
}

// ActorResolver yields the user on whose behalf the ledger writes.
type ActorResolver interface {
	// CurrentActor never returns a nil id without an error.
	CurrentActor(ctx context.Context) (id.ID, error)
}

// ContextActorResolver reads the actor from the request's UserContext and
// checks that the user exists.
type ContextActorResolver struct {
	repo Repository
}

// NewContextActorResolver creates a resolver backed by repo.
func NewContextActorResolver(repo Repository) *ContextActorResolver {
	return &ContextActorResolver{repo: repo}
}

// CurrentActor implements ActorResolver.
func (r *ContextActorResolver) CurrentActor(ctx context.Context) (id.ID, error) {
	raw := appctx.GetUserID(ctx)
	if raw == "" {
		return id.Nil(), apperror.NewNotFound("actor", "")
	}

	actorID, err := id.Parse(raw)
	if err != nil || id.IsNil(actorID) {
		return id.Nil(), apperror.NewNotFound("actor", raw)
	}

	ok, err := r.repo.UserExists(ctx, actorID)
	if err != nil {
		return id.Nil(), fmt.Errorf("check actor %s: %w", actorID, err)
	}
	if !ok {
		return id.Nil(), apperror.NewNotFound("actor", raw)
	}
	return actorID, nil
}

var _ ActorResolver = (*ContextActorResolver)(nil)
