package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/pagination"
)

// System defines the public contract for product-to-PUC links and uberpuc resolution.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Classification], error)

	Find(ctx context.Context, id uuid.UUID) (*Classification, error)

	// ForProduct returns a product's links ordered from winner to loser.
	ForProduct(ctx context.Context, productID uuid.UUID) ([]Classification, error)

	Methods(ctx context.Context) ([]Method, error)

	// Assign upserts the link for the command's product and method and
	// recomputes that product's uberpuc in the same transaction.
	Assign(ctx context.Context, cmd AssignCommand) (*Classification, error)

	// BulkAssign links one PUC to many products and recomputes them together.
	BulkAssign(ctx context.Context, cmd BulkAssignCommand) (*BulkResult, error)

	// Remove deletes a link and recomputes its product's uberpuc.
	Remove(ctx context.Context, id uuid.UUID) error

	// Recompute re-resolves the uberpuc of every product.
	Recompute(ctx context.Context) (*RecomputeResult, error)

	// Verify checks the stored uberpuc flags against Resolve.
	Verify(ctx context.Context) (*VerifyResult, error)
}

// TreeInvalidator drops cached hierarchy data affected by classification changes.
type TreeInvalidator interface {
	InvalidateTree(ctx context.Context) error
}
