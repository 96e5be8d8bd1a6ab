package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/storage"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// Create uploads the file and registers it. The blob is removed again
	// if the row cannot be written.
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Document, error)

	// Download opens the stored file. The caller must close the blob body.
	Download(ctx context.Context, id uuid.UUID) (*Document, *storage.Blob, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
