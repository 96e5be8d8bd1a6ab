package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Summary is surfaced in
// the generated OpenAPI document and defaults to "METHOD path" when empty.
type Route struct {
	Method  string
	Pattern string
	Summary string
	Handler http.HandlerFunc
}

// Path joins the route pattern onto a group prefix.
func (r Route) Path(prefix string) string {
	return prefix + r.Pattern
}
