package rules

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/pagination"
)

// System defines the public contract for classification rule operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Rule], error)

	Find(ctx context.Context, id uuid.UUID) (*Rule, error)
	Create(ctx context.Context, cmd CreateCommand) (*Rule, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Rule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Rule, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Rule, error)

	// Import upserts the rules of f by name in one transaction.
	Import(ctx context.Context, f *File) (*ImportResult, error)

	// Apply evaluates the active rules against every product and assigns
	// each match as an RU classification.
	Apply(ctx context.Context) (*ApplyResult, error)
}
