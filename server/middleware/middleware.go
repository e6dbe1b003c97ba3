package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/whisper-srt/errors"
)

// Middleware wraps an http.Handler with additional behavior. The whole
// stack is applied around the root mux, so it covers Gin routes and any
// other handler mounted on the server.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// writeError renders err with the same body shape as the API handlers.
func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
