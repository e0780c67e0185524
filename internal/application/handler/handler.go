package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"grameengo/internal/application/models"
	"grameengo/internal/application/service"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/httputil"
	"grameengo/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler exposes.
type Service interface {
	Create(ctx context.Context, draft models.Draft) (*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	Transition(ctx context.Context, cmd service.TransitionCommand) (*models.Application, error)
}

type Handler struct {
	svc           Service
	logger        *slog.Logger
	createLimiter func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithCreateLimiter throttles POST /applications.
func WithCreateLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.createLimiter = mw }
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the application routes. Callers wrap r with auth.
func (h *Handler) Register(r chi.Router) {
	create := http.Handler(http.HandlerFunc(h.handleCreate))
	if h.createLimiter != nil {
		create = h.createLimiter(create)
	}
	r.Method(http.MethodPost, "/applications", create)
	r.Get("/applications", h.handleList)
	r.Get("/applications/{id}", h.handleGet)
	r.Patch("/applications/{id}", h.handleTransition)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := httputil.DecodeJSON(r, createSchema, &req); err != nil {
		h.fail(ctx, w, "invalid create application request", err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		h.fail(ctx, w, "invalid create application request", err)
		return
	}

	app, err := h.svc.Create(ctx, draft)
	if err != nil {
		h.fail(ctx, w, "create application failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.svc.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list applications failed", err)
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, apps)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.Get(ctx, appID)
	if err != nil {
		h.fail(ctx, w, "get application failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := httputil.DecodeJSON(r, transitionSchema, &req); err != nil {
		h.fail(ctx, w, "invalid transition request", err)
		return
	}

	app, err := h.svc.Transition(ctx, req.toCommand(appID))
	if err != nil {
		h.fail(ctx, w, "transition application failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
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
