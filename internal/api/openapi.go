package api

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/pkg/openapi"
	"github.com/JaimeStill/factotum/pkg/routes"
)

var pathParam = regexp.MustCompile(`\{([a-z_]+)\}`)

var tagDescriptions = map[string]string{
	"pucs":            "Product use categories and their hierarchy",
	"classifications": "Product to PUC assignments",
	"products":        "Products and their resolved uberpuc",
	"documents":       "Source documents and their stored content",
	"rules":           "Attribute rules that classify products",
	"qa":              "Extraction scripts, extracted texts and QA groups",
	"audit":           "Row level change history",
}

// buildSpec describes every registered route. Each top-level group becomes a
// tag and each {param} segment a required path parameter.
func buildSpec(cfg *config.Config, groups []routes.Group) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.OpenAPI.Server(cfg.API.BasePath))

	routes.Walk(func(prefix string, r routes.Route) {
		path := r.Path(prefix)
		item, ok := spec.Paths[path]
		if !ok {
			item = &openapi.PathItem{}
			spec.Paths[path] = item
		}

		tag := tagOf(prefix)
		spec.AddTag(tag, tagDescriptions[tag])

		op := newOperation(r.Method, path, tag)
		if r.Summary != "" {
			op.Summary = r.Summary
		}

		switch r.Method {
		case http.MethodGet:
			item.Get = op
		case http.MethodPost:
			item.Post = op
		case http.MethodPut:
			item.Put = op
		case http.MethodDelete:
			item.Delete = op
		}
	}, groups...)

	return spec
}

// tagOf names a route by the first segment of its group prefix.
func tagOf(prefix string) string {
	tag, _, _ := strings.Cut(strings.TrimPrefix(prefix, "/"), "/")
	return tag
}

func newOperation(method, path, tag string) *openapi.Operation {
	op := &openapi.Operation{
		Summary: method + " " + path,
		Tags:    []string{tag},
		Responses: map[int]*openapi.Response{
			http.StatusOK:                  {Description: "Success"},
			http.StatusInternalServerError: {Description: "Internal error"},
		},
	}

	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		p := openapi.PathParam(m[1], m[1])
		if tag == "audit" {
			p = openapi.IntPathParam(m[1], m[1])
		}
		op.Parameters = append(op.Parameters, p)
		op.Responses[http.StatusBadRequest] = openapi.ResponseRef("BadRequest")
		op.Responses[http.StatusNotFound] = openapi.ResponseRef("NotFound")
	}

	if method == http.MethodGet && !strings.Contains(path, "{") {
		op.Parameters = append(op.Parameters,
			openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search query", false),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
		)
	}

	if method == http.MethodPost || method == http.MethodPut {
		op.Responses[http.StatusBadRequest] = openapi.ResponseRef("BadRequest")
		op.Responses[http.StatusConflict] = openapi.ResponseRef("Conflict")
	}

	if method == http.MethodDelete {
		delete(op.Responses, http.StatusOK)
		op.Responses[http.StatusNoContent] = &openapi.Response{Description: "Deleted"}
	}

	return op
}
