package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"grameengo/internal/mfi/models"
	"grameengo/internal/mfi/service"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/httputil"
	"grameengo/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context) ([]*models.MFI, error)
	Get(ctx context.Context, mfiID id.MFIID) (*models.MFI, error)
	Create(ctx context.Context, req service.CreateRequest) (*models.MFI, error)
	ListProducts(ctx context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/mfis", h.handleList)
	r.Post("/mfis", h.handleCreate)
	r.Get("/mfis/{id}", h.handleGet)
	r.Get("/loan-products", h.handleListProducts)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mfis, err := h.svc.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list mfis failed", err)
		return
	}
	if mfis == nil {
		mfis = []*models.MFI{}
	}
	httputil.WriteJSON(w, http.StatusOK, mfis)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mfiID, err := id.ParseMFIID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.svc.Get(ctx, mfiID)
	if err != nil {
		h.fail(ctx, w, "get mfi failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateRequest
	if err := httputil.DecodeJSON(r, createSchema, &req); err != nil {
		h.fail(ctx, w, "invalid create mfi request", err)
		return
	}
	m, err := h.svc.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "create mfi failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter *id.MFIID
	if v := r.URL.Query().Get("mfi_id"); v != "" {
		mfiID, err := id.ParseMFIID(v)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter = &mfiID
	}

	products, err := h.svc.ListProducts(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "list loan products failed", err)
		return
	}
	if products == nil {
		products = []*models.LoanProduct{}
	}
	httputil.WriteJSON(w, http.StatusOK, products)
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
