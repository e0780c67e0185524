package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"grameengo/internal/analytics/models"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/httputil"
	"grameengo/pkg/requestcontext"
)

// maxTrendLimit bounds ?limit= on the trends endpoint.
const maxTrendLimit = 120

type Service interface {
	Stats(ctx context.Context) (models.Summary, error)
	Trends(ctx context.Context, order models.Order, limit int) ([]models.TrendBucket, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/analytics/stats", h.handleStats)
	r.Get("/analytics/trends", h.handleTrends)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.fail(ctx, w, "analytics stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, limit, err := parseTrendQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	trends, err := h.svc.Trends(ctx, order, limit)
	if err != nil {
		h.fail(ctx, w, "analytics trends failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trends)
}

func parseTrendQuery(r *http.Request) (models.Order, int, error) {
	q := r.URL.Query()

	order := models.OrderAsc
	switch v := q.Get("order"); v {
	case "", string(models.OrderAsc):
	case string(models.OrderDesc):
		order = models.OrderDesc
	default:
		return "", 0, dErrors.New(dErrors.CodeBadRequest, "order must be asc or desc")
	}

	limit := models.DefaultTrendLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTrendLimit {
			return "", 0, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and "+strconv.Itoa(maxTrendLimit))
		}
		limit = n
	}
	return order, limit, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
