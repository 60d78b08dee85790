package httpx

import (
	"net/http"

	"github.com/egx/identity/pkg/slogx"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to h in reverse order, so the first listed
// middleware is the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recover is the outermost boundary for unhandled panics. Anything that
// escapes a handler is logged and converted into a generic 500; no fault
// crosses the transport as a raw panic.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slogx.FromContext(r.Context()).Error("panic recovered", "panic", rec, "path", r.URL.Path)
					WriteJSON(w, http.StatusInternalServerError, map[string]any{
						"errors": []string{"an unhandled internal error has occurred"},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
