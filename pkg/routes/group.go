package routes

import "net/http"

// Group organizes routes under a common prefix. Nested groups inherit the
// prefix of their parent.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Visit is called once per route with the full prefix of its enclosing group.
type Visit func(prefix string, route Route)

// Walk visits every route in the given groups, depth first, in declaration order.
func Walk(visit Visit, groups ...Group) {
	for _, group := range groups {
		walkGroup(visit, "", group)
	}
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	Walk(func(prefix string, route Route) {
		mux.HandleFunc(route.Method+" "+route.Path(prefix), route.Handler)
	}, groups...)
}

func walkGroup(visit Visit, parent string, group Group) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		visit(prefix, route)
	}
	for _, child := range group.Children {
		walkGroup(visit, prefix, child)
	}
}
