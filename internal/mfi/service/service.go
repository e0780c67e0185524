// Package service serves the MFI catalog and lets admins extend it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"grameengo/internal/mfi/metrics"
	"grameengo/internal/mfi/models"
	"grameengo/internal/policy"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/sentinel"
	"grameengo/pkg/platform/tx"
	"grameengo/pkg/requestcontext"
)

type Store interface {
	List(ctx context.Context) ([]*models.MFI, error)
	FindByID(ctx context.Context, mfiID id.MFIID) (*models.MFI, error)
	Create(ctx context.Context, m *models.MFI) error
	ListProducts(ctx context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	tx             tx.Runner
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) { s.tx = r }
}

// WithAuditPublisher sets the fail-closed publisher for catalog changes.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     tx.InlineRunner{},
		logger: slog.Default(),
		tracer: otel.Tracer("grameengo/internal/mfi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*models.MFI, error) {
	ctx, span := s.tracer.Start(ctx, "mfi.List")
	defer span.End()

	mfis, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list mfis")
	}
	return mfis, nil
}

func (s *Service) Get(ctx context.Context, mfiID id.MFIID) (*models.MFI, error) {
	ctx, span := s.tracer.Start(ctx, "mfi.Get")
	defer span.End()

	m, err := s.store.FindByID(ctx, mfiID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewNotFound("mfi", mfiID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mfi")
	}
	return m, nil
}

// ListProducts lists loan products, optionally for one MFI. Naming an MFI
// that does not exist is a not-found rather than an empty list.
func (s *Service) ListProducts(ctx context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error) {
	ctx, span := s.tracer.Start(ctx, "mfi.ListProducts")
	defer span.End()

	if mfiID != nil {
		if _, err := s.Get(ctx, *mfiID); err != nil {
			return nil, err
		}
	}
	products, err := s.store.ListProducts(ctx, mfiID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loan products")
	}
	return products, nil
}

// CreateRequest is an admin's new catalog entry.
type CreateRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	MinLoanAmount      float64  `json:"min_loan_amount"`
	MaxLoanAmount      float64  `json:"max_loan_amount"`
	InterestRate       float64  `json:"interest_rate"`
	ProcessingTimeDays int      `json:"processing_time_days"`
	CollateralRequired bool     `json:"collateral_required"`
	TenureOptions      []int    `json:"tenure_options"`
	Requirements       []string `json:"requirements"`
	Website            string   `json:"website"`
	ContactEmail       string   `json:"contact_email"`
	ContactPhone       string   `json:"contact_phone"`
	LogoURL            string   `json:"logo_url"`
}

// Validate reports every invalid field together.
func (r CreateRequest) Validate() error {
	var v dErrors.ValidationErrors
	if strings.TrimSpace(r.Name) == "" {
		v.Add("name", "is required")
	}
	if r.MinLoanAmount <= 0 {
		v.Add("min_loan_amount", "must be greater than 0")
	}
	if r.MaxLoanAmount < r.MinLoanAmount {
		v.Add("max_loan_amount", "must not be less than min_loan_amount")
	}
	if r.InterestRate < 0 {
		v.Add("interest_rate", "must not be negative")
	}
	if r.ProcessingTimeDays < 0 {
		v.Add("processing_time_days", "must not be negative")
	}
	for _, t := range r.TenureOptions {
		if t <= 0 {
			v.Add("tenure_options", "must contain only positive month counts")
			break
		}
	}
	return v.Err()
}

// Create adds an MFI to the catalog. Admin only; names are unique ignoring
// case.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.MFI, error) {
	ctx, span := s.tracer.Start(ctx, "mfi.Create")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	if err := policy.Require(actor, policy.ActionMFICreate, nil); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := models.NewMFI(models.MFI{
		ID:                 id.MFIID(uuid.New()),
		Name:               req.Name,
		Description:        req.Description,
		MinLoanAmount:      req.MinLoanAmount,
		MaxLoanAmount:      req.MaxLoanAmount,
		InterestRate:       req.InterestRate,
		ProcessingTimeDays: req.ProcessingTimeDays,
		CollateralRequired: req.CollateralRequired,
		TenureOptions:      req.TenureOptions,
		Requirements:       req.Requirements,
		Website:            req.Website,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		LogoURL:            req.LogoURL,
		CreatedAt:          requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, m); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "an mfi with this name already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create mfi")
		}
		if s.auditPublisher == nil {
			return nil
		}
		if err := s.auditPublisher.Emit(ctx, audit.Event{
			Action:      string(audit.EventMFICreated),
			ActorID:     actor.ID,
			ActorRole:   string(actor.Role),
			SubjectType: "mfi",
			SubjectID:   m.ID.String(),
			MFIID:       m.ID.String(),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementMFICreated()
	s.logger.InfoContext(ctx, string(audit.EventMFICreated),
		"mfi_id", m.ID.String(),
		"name", m.Name,
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	return m, nil
}
