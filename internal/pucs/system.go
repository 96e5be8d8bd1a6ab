package pucs

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/pagination"
)

// System defines the public contract for PUC hierarchy operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[PUC], error)

	Find(ctx context.Context, id uuid.UUID) (*PUC, error)
	Create(ctx context.Context, cmd CreateCommand) (*PUC, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*PUC, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Children returns the PUCs exactly one level below id.
	Children(ctx context.Context, id uuid.UUID) ([]PUC, error)

	// Products lists the products whose uberpuc is id.
	Products(
		ctx context.Context,
		id uuid.UUID,
		page pagination.PageRequest,
	) (*pagination.PageResult[ProductSummary], error)

	// Tree returns the full hierarchy with product counts, served from cache when possible.
	Tree(ctx context.Context) ([]*TreeNode, error)

	// InvalidateTree drops the cached hierarchy after classification changes.
	InvalidateTree(ctx context.Context) error

	// Export writes every PUC and its counts as an XLSX workbook.
	Export(ctx context.Context, w io.Writer) error
}
