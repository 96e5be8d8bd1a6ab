package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/pkg/openapi"
	"github.com/JaimeStill/factotum/pkg/routes"
)

func routeGroups(domain *Domain, cfg *config.Config) []routes.Group {
	return []routes.Group{
		domain.PUCs.Handler().Routes(),
		domain.Classifications.Handler().Routes(),
		domain.Products.Handler().Routes(),
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Rules.Handler().Routes(),
		domain.QA.Handler().Routes(),
		domain.Audit.Handler().Routes(),
	}
}

// Spec returns the OpenAPI document for every route the API module serves.
func Spec(cfg *config.Config, domain *Domain) *openapi.Spec {
	return buildSpec(cfg, routeGroups(domain, cfg))
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	groups := routeGroups(domain, cfg)
	routes.Register(mux, groups...)

	spec := buildSpec(cfg, groups)
	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	return nil
}
