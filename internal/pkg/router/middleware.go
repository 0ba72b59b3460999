package router

import "net/http"

// Middleware wraps an http.Handler with extra behavior.
type Middleware func(next http.Handler) http.Handler

// Chain applies middlewares to h so the first one listed is the
// outermost at request time.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
