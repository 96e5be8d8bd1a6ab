package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first Func added is
// the outermost wrapper.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
}

type stack []Func

// New creates a middleware System seeded with the given middleware.
func New(mws ...Func) System {
	s := append(make(stack, 0, len(mws)), mws...)
	return &s
}

func (s *stack) Use(fn Func) {
	*s = append(*s, fn)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(*s) - 1; i >= 0; i-- {
		handler = (*s)[i](handler)
	}
	return handler
}
