package api

import (
	"net/http"
	"testing"

	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/pkg/routes"
)

func noop(http.ResponseWriter, *http.Request) {}

func TestBuildSpec(t *testing.T) {
	cfg := &config.Config{Version: "1.2.3"}
	cfg.API.BasePath = "/api"
	cfg.API.OpenAPI.Title = "Factotum API"

	groups := []routes.Group{
		{
			Prefix: "/pucs",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Summary: "List PUCs", Handler: noop},
				{Method: "POST", Pattern: "", Handler: noop},
				{Method: "GET", Pattern: "/{id}", Handler: noop},
				{Method: "DELETE", Pattern: "/{id}", Handler: noop},
			},
			Children: []routes.Group{
				{
					Prefix: "/{id}/children",
					Routes: []routes.Route{{Method: "GET", Pattern: "", Handler: noop}},
				},
			},
		},
		{
			Prefix: "/audit",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: noop},
			},
		},
	}

	spec := buildSpec(cfg, groups)

	if spec.Info.Title != "Factotum API" || spec.Info.Version != "1.2.3" {
		t.Errorf("info = %+v", spec.Info)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers = %+v", spec.Servers)
	}

	if len(spec.Tags) != 2 || spec.Tags[0].Name != "pucs" || spec.Tags[1].Name != "audit" {
		t.Fatalf("tags = %+v, want pucs then audit", spec.Tags)
	}
	if spec.Tags[0].Description == "" {
		t.Error("known tags should be described")
	}

	list := spec.Paths["/pucs"]
	if list == nil || list.Get == nil || list.Post == nil {
		t.Fatalf("/pucs = %+v, want GET and POST", list)
	}
	if list.Get.Summary != "List PUCs" {
		t.Errorf("summary = %q, want List PUCs", list.Get.Summary)
	}
	if list.Post.Summary != "POST /pucs" {
		t.Errorf("default summary = %q", list.Post.Summary)
	}
	if list.Get.Tags[0] != "pucs" {
		t.Errorf("tag = %v, want pucs", list.Get.Tags)
	}
	if len(list.Get.Parameters) != 4 {
		t.Errorf("list parameters = %d, want 4 paging parameters", len(list.Get.Parameters))
	}
	if _, ok := list.Post.Responses[http.StatusConflict]; !ok {
		t.Error("POST should document 409")
	}

	item := spec.Paths["/pucs/{id}"]
	if item == nil || item.Get == nil || item.Delete == nil {
		t.Fatalf("/pucs/{id} = %+v", item)
	}
	if p := item.Get.Parameters; len(p) != 1 || p[0].Name != "id" || p[0].In != "path" || p[0].Schema.Format != "uuid" {
		t.Errorf("path parameters = %+v", p)
	}
	if _, ok := item.Delete.Responses[http.StatusNoContent]; !ok {
		t.Error("DELETE should document 204")
	}

	children := spec.Paths["/pucs/{id}/children"]
	if children == nil || children.Get == nil || children.Get.Tags[0] != "pucs" {
		t.Errorf("nested group should be tagged with its top-level prefix: %+v", children)
	}

	entry := spec.Paths["/audit/{id}"]
	if entry == nil || entry.Get.Parameters[0].Schema.Type != "integer" {
		t.Errorf("audit id should be an integer parameter")
	}
}
