// Package requesttime pins one "now" per request, so an application's
// updated_at, its notification and its audit event carry the same instant.
package requesttime

import (
	"net/http"
	"time"

	"grameengo/pkg/requestcontext"
)

// New stamps each request with clock(), normalized to UTC. Handlers read it
// back with requestcontext.Now.
func New(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), clock().UTC())))
		})
	}
}
