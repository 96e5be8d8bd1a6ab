package qa

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/pagination"
)

// System defines the public contract for the extraction QA workflow.
type System interface {
	Handler() *Handler

	ListScripts(
		ctx context.Context,
		page pagination.PageRequest,
		filters ScriptFilters,
	) (*pagination.PageResult[Script], error)

	FindScript(ctx context.Context, id uuid.UUID) (*Script, error)
	CreateScript(ctx context.Context, cmd CreateScriptCommand) (*Script, error)

	ListTexts(
		ctx context.Context,
		page pagination.PageRequest,
		filters TextFilters,
	) (*pagination.PageResult[ExtractedText], error)

	FindText(ctx context.Context, id uuid.UUID) (*ExtractedText, error)
	RegisterText(ctx context.Context, cmd RegisterTextCommand) (*ExtractedText, error)

	FindGroup(ctx context.Context, id uuid.UUID) (*Group, error)
	GroupTexts(ctx context.Context, groupID uuid.UUID) ([]ExtractedText, error)

	// BeginQA returns the script's open group, creating one from its
	// ungrouped unreviewed texts when none is open.
	BeginQA(ctx context.Context, scriptID uuid.UUID, cmd BeginCommand) (*Group, error)

	Approve(ctx context.Context, textID uuid.UUID, cmd ApproveCommand) (*ExtractedText, error)
	Progress(ctx context.Context, groupID uuid.UUID) (*Progress, error)

	// Complete closes a fully approved group and marks its script complete.
	Complete(ctx context.Context, groupID uuid.UUID) (*Group, error)
}
