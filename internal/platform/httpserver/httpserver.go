package httpserver

import (
	"net/http"
	"time"

	"grameengo/internal/platform/config"
)

// writeSlack is added to the request timeout so a handler that hits its
// deadline can still write the error response.
const writeSlack = 5 * time.Second

// New builds the API server. Header and body reads are bounded
// separately; writes get the request timeout plus slack.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + writeSlack,
		IdleTimeout:       90 * time.Second,
	}
}
