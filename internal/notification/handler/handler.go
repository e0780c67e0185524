package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"grameengo/internal/notification/models"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/httputil"
	"grameengo/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context) ([]*models.Notification, error)
	MarkRead(ctx context.Context, nID id.NotificationID) (*models.Notification, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the notification routes. Callers wrap r with auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Patch("/notifications/{id}/read", h.handleMarkRead)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.svc.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list notifications failed", err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.svc.MarkRead(ctx, nID)
	if err != nil {
		h.fail(ctx, w, "mark notification read failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
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
