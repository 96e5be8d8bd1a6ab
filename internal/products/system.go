package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

// System defines the public contract for product operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Product], error)

	Find(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, cmd CreateCommand) (*Product, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Classifications returns the product's PUC links, winner first.
	Classifications(ctx context.Context, id uuid.UUID) ([]classifications.Classification, error)
}
