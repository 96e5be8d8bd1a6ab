package audit

import (
	"context"

	"github.com/JaimeStill/factotum/pkg/pagination"
)

// System defines the public contract for the audit log.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	Find(ctx context.Context, id int64) (*Entry, error)

	// Install creates or replaces the triggers for every declared table.
	Install(ctx context.Context) (*InstallResult, error)
}
