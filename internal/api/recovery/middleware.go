// Package recovery converts handler panics into JSON 500s so one hostile or
// malformed archive cannot take down the API process.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/secondbrain/vault-service/internal/api/respond"
)

// Middleware recovers panics from downstream handlers. The request that
// panicked gets the generic 500 envelope; the panic value and stack go to the
// log only, never to the caller.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Bytes("stack", debug.Stack()).
				Msg("request handler panicked")

			respond.WriteInternalError(w, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
