package scalar

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/factotum/pkg/module"
)

//go:embed index.html
var staticFS embed.FS

// NewModule serves the Scalar API reference for the OpenAPI document at
// specURL. The Scalar bundle itself loads from the CDN.
func NewModule(basePath, specURL string) *module.Module {
	router := buildRouter(specURL)
	return module.New(basePath, router)
}

func buildRouter(specURL string) http.Handler {
	mux := http.NewServeMux()

	tmpl := template.Must(template.ParseFS(staticFS, "index.html"))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{"SpecURL": specURL})
	})

	return mux
}
