package api

import (
	"github.com/JaimeStill/factotum/internal/audit"
	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/internal/documents"
	"github.com/JaimeStill/factotum/internal/products"
	"github.com/JaimeStill/factotum/internal/pucs"
	"github.com/JaimeStill/factotum/internal/qa"
	"github.com/JaimeStill/factotum/internal/rules"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	PUCs            pucs.System
	Classifications classifications.System
	Products        products.System
	Documents       documents.System
	Rules           rules.System
	QA              qa.System
	Audit           audit.System
}

// NewDomain creates all domain systems from the API runtime.
// Classification changes invalidate the cached PUC tree.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	pucsSystem := pucs.New(
		db,
		runtime.Cache,
		runtime.Metrics,
		runtime.Logger,
		runtime.Pagination,
	)

	classificationsSystem := classifications.New(
		db,
		pucsSystem,
		runtime.Metrics,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		PUCs:            pucsSystem,
		Classifications: classificationsSystem,
		Products: products.New(
			db,
			classificationsSystem,
			pucsSystem,
			runtime.Logger,
			runtime.Pagination,
		),
		Documents: documents.New(
			db,
			runtime.Storage,
			runtime.Logger,
			runtime.Pagination,
		),
		Rules: rules.New(
			db,
			classificationsSystem,
			runtime.Metrics,
			runtime.Logger,
			runtime.Pagination,
			runtime.Rules.Concurrency,
		),
		QA: qa.New(
			db,
			runtime.Metrics,
			runtime.Logger,
			runtime.Pagination,
			runtime.QA.SampleThreshold,
			runtime.QA.SampleFraction,
		),
		Audit: audit.New(
			db,
			audit.Declarations(),
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
