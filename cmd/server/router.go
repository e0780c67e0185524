package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analyticshandler "grameengo/internal/analytics/handler"
	apphandler "grameengo/internal/application/handler"
	mfihandler "grameengo/internal/mfi/handler"
	notificationhandler "grameengo/internal/notification/handler"
	"grameengo/internal/platform/config"
	platformmetrics "grameengo/internal/platform/metrics"
	platformmw "grameengo/internal/platform/middleware"
	"grameengo/pkg/platform/httputil"
	authmw "grameengo/pkg/platform/middleware/auth"
	"grameengo/pkg/platform/middleware/metadata"
	"grameengo/pkg/platform/middleware/request"
	"grameengo/pkg/platform/middleware/requesttime"
)

// healthTimeout bounds each dependency ping on GET /health.
const healthTimeout = 2 * time.Second

// newRouter mounts every handler. Everything except /health and /metrics
// requires a bearer token.
func newRouter(cfg *config.Config, d *deps, log *slog.Logger, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.New(time.Now))
	r.Use(request.Logger(log))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))
	r.Use(platformmw.LatencyMiddleware(platformmetrics.New(reg)))

	r.Get("/health", healthHandler(d))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(authmw.RequireAuth(d.tokens.Validator(), log))

		mfihandler.New(d.mfis, log).Register(r)
		apphandler.New(d.applications, log, apphandler.WithCreateLimiter(d.limiter.Handler)).Register(r)
		analyticshandler.New(d.analytics, log).Register(r)
		notificationhandler.New(d.notifications, log).Register(r)
	})
	return r
}

type healthResponse struct {
	Status  string            `json:"status"`
	Storage string            `json:"storage"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func healthHandler(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Storage: d.storage, Checks: map[string]string{}}
		check := func(name string, ping func(context.Context) error) {
			if err := ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				return
			}
			resp.Checks[name] = "ok"
		}
		if d.db != nil {
			check("postgres", d.db.PingContext)
		}
		if d.redis != nil {
			check("redis", d.redis.Health)
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
