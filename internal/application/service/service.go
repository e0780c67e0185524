// Package service runs the application lifecycle: submission, scoped reads
// and officer transitions. Every operation asks the policy first, writes
// the record and its compliance audit event in one unit of work, and only
// then notifies the borrower.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"grameengo/internal/application/metrics"
	"grameengo/internal/application/models"
	"grameengo/internal/application/validation"
	mfimodels "grameengo/internal/mfi/models"
	notificationmodels "grameengo/internal/notification/models"
	"grameengo/internal/policy"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/sentinel"
	"grameengo/pkg/platform/tx"
	"grameengo/pkg/requestcontext"
)

// ListLimit caps GET /applications.
const ListLimit = 100

type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	List(ctx context.Context, filter policy.Filter, limit int) ([]*models.Application, error)
	Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error)
}

type MFILookup interface {
	FindByID(ctx context.Context, mfiID id.MFIID) (*mfimodels.MFI, error)
}

// Emitter records a borrower-facing notification.
type Emitter interface {
	Emit(ctx context.Context, n notificationmodels.Draft) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store      Store
	mfis       MFILookup
	tx         tx.Runner
	compliance AuditPublisher
	security   AuditPublisher
	notifier   Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTxRunner sets the unit of work that groups the record write with its
// audit event. Defaults to tx.InlineRunner.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) { s.tx = r }
}

// WithComplianceAudit sets the fail-closed publisher for lifecycle events.
// A failed emit fails the operation.
func WithComplianceAudit(p AuditPublisher) Option {
	return func(s *Service) { s.compliance = p }
}

// WithSecurityAudit sets the best-effort publisher for denied access.
func WithSecurityAudit(p AuditPublisher) Option {
	return func(s *Service) { s.security = p }
}

func WithNotifier(e Emitter) Option {
	return func(s *Service) { s.notifier = e }
}

func New(store Store, mfis MFILookup, opts ...Option) *Service {
	s := &Service{
		store:  store,
		mfis:   mfis,
		tx:     tx.InlineRunner{},
		logger: slog.Default(),
		tracer: otel.Tracer("grameengo/internal/application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates a borrower's draft against the chosen MFI and stores a
// submitted application owned by the caller.
func (s *Service) Create(ctx context.Context, draft models.Draft) (_ *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.Create")
	defer func() { endSpan(span, err) }()

	actor := requestcontext.Actor(ctx)
	if err := s.authorize(ctx, actor, policy.ActionApplicationCreate, &policy.Resource{OwnerID: actor.ID}); err != nil {
		return nil, err
	}

	draft.Normalize()
	var (
		terms *mfimodels.Terms
		mfiID id.MFIID
	)
	if draft.MFIID != nil {
		mfiID = *draft.MFIID
		mfi, err := s.mfis.FindByID(ctx, mfiID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.NewNotFound("mfi", mfiID.String())
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mfi")
		}
		t := mfi.Terms()
		terms = &t
	}
	if err := validation.ValidateDraft(draft, terms); err != nil {
		return nil, err
	}

	app, err := models.NewApplication(id.ApplicationID(uuid.New()), actor.ID, mfiID, draft, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("application.id", app.ID.String()))

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, app); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store application")
		}
		return s.emitCompliance(ctx, audit.Event{
			Action:      string(audit.EventApplicationSubmitted),
			ActorID:     actor.ID,
			ActorRole:   string(actor.Role),
			SubjectType: "application",
			SubjectID:   app.ID.String(),
			MFIID:       app.MFIID.String(),
			ToStatus:    string(app.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, string(audit.EventApplicationSubmitted),
		"application_id", app.ID.String(),
		"mfi_id", app.MFIID.String(),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notify(ctx, app, submittedNotice)
	return app, nil
}

// List returns the applications the caller may see, newest first.
func (s *Service) List(ctx context.Context) (_ []*models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.List")
	defer func() { endSpan(span, err) }()

	actor := requestcontext.Actor(ctx)
	if err := s.authorize(ctx, actor, policy.ActionApplicationList, nil); err != nil {
		return nil, err
	}
	apps, err := s.store.List(ctx, policy.Scope(actor), ListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// Get returns one application if the caller may read it.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (_ *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.Get",
		trace.WithAttributes(attribute.String("application.id", appID.String())))
	defer func() { endSpan(span, err) }()

	actor := requestcontext.Actor(ctx)
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, policy.ActionApplicationRead, resourceOf(app)); err != nil {
		return nil, err
	}
	return app, nil
}

// TransitionCommand is an officer's request to move one application.
// ExpectedStatus is the status the officer saw; nil means "whatever is
// stored now".
type TransitionCommand struct {
	ApplicationID   id.ApplicationID
	Status          models.Status
	OfficerNotes    string
	RejectionReason string
	ExpectedStatus  *models.Status
}

// Transition applies an officer's decision. The status check, the write and
// the audit event happen atomically; a concurrent change to the same
// application yields a ConflictError.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (_ *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.Transition",
		trace.WithAttributes(
			attribute.String("application.id", cmd.ApplicationID.String()),
			attribute.String("application.to", string(cmd.Status)),
		))
	defer func() { endSpan(span, err) }()

	actor := requestcontext.Actor(ctx)
	if err := s.authorize(ctx, actor, policy.ActionApplicationTransition, nil); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, policy.ActionApplicationTransition, resourceOf(current)); err != nil {
		return nil, err
	}
	if err := validation.ValidateTransition(validation.TransitionRequest{
		Status:          cmd.Status,
		OfficerNotes:    cmd.OfficerNotes,
		RejectionReason: cmd.RejectionReason,
	}); err != nil {
		return nil, err
	}

	expected := current.Status
	if cmd.ExpectedStatus != nil {
		expected = *cmd.ExpectedStatus
	}
	change := models.Transition{
		To:              cmd.Status,
		OfficerID:       actor.ID,
		OfficerNotes:    cmd.OfficerNotes,
		RejectionReason: cmd.RejectionReason,
	}
	now := requestcontext.Now(ctx)
	start := time.Now()

	var updated *models.Application
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.store.Execute(ctx, cmd.ApplicationID,
			func(a *models.Application) error {
				if a.Status != expected {
					return dErrors.NewConflict(string(expected), string(a.Status))
				}
				return a.CanTransition(change.To)
			},
			func(a *models.Application) { a.ApplyTransition(change, now) },
		)
		if err != nil {
			return err
		}
		return s.emitCompliance(ctx, audit.Event{
			Action:      string(audit.EventApplicationTransitioned),
			ActorID:     actor.ID,
			ActorRole:   string(actor.Role),
			SubjectType: "application",
			SubjectID:   updated.ID.String(),
			MFIID:       updated.MFIID.String(),
			FromStatus:  string(expected),
			ToStatus:    string(updated.Status),
			Reason:      cmd.RejectionReason,
		})
	})
	if err != nil {
		return nil, s.transitionError(ctx, cmd.ApplicationID, expected, err)
	}

	s.metrics.IncrementTransition(string(updated.Status))
	s.metrics.ObserveTransition(start)
	s.logger.InfoContext(ctx, string(audit.EventApplicationTransitioned),
		"application_id", updated.ID.String(),
		"from", string(expected),
		"to", string(updated.Status),
		"officer_id", actor.ID.String(),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notify(ctx, updated, statusNotices[updated.Status])
	return updated, nil
}

func (s *Service) transitionError(ctx context.Context, appID id.ApplicationID, expected models.Status, err error) error {
	var conflict *dErrors.ConflictError
	switch {
	case errors.As(err, &conflict):
		s.metrics.IncrementConflict()
		return err
	case errors.Is(err, sentinel.ErrConflict):
		// The conditional write lost; report what is stored now.
		s.metrics.IncrementConflict()
		actual := "unknown"
		if app, ferr := s.store.FindByID(ctx, appID); ferr == nil {
			actual = string(app.Status)
		}
		return dErrors.NewConflict(string(expected), actual)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.NewNotFound("application", appID.String())
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transition application")
}

func (s *Service) load(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewNotFound("application", appID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

func (s *Service) authorize(ctx context.Context, actor id.Actor, action policy.Action, res *policy.Resource) error {
	decision := policy.Authorize(actor, action, res)
	if decision.Allowed {
		return nil
	}
	s.metrics.IncrementDenial(string(action), decision.Reason)
	s.logger.WarnContext(ctx, "authorization denied",
		"action", string(action),
		"reason", decision.Reason,
		"actor_id", actor.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.security != nil {
		_ = s.security.Emit(ctx, audit.Event{
			Action:      string(audit.EventAuthorizationDenied),
			ActorID:     actor.ID,
			ActorRole:   string(actor.Role),
			SubjectType: "action",
			SubjectID:   string(action),
			Reason:      decision.Reason,
		})
	}
	return decision.Err(action)
}

func (s *Service) emitCompliance(ctx context.Context, event audit.Event) error {
	if s.compliance == nil {
		return nil
	}
	if err := s.compliance.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// notify runs after commit. Failures are logged only.
func (s *Service) notify(ctx context.Context, app *models.Application, n notice) {
	if s.notifier == nil || n.message == "" {
		return
	}
	err := s.notifier.Emit(ctx, notificationmodels.Draft{
		RecipientID: app.BorrowerID,
		Title:       n.title,
		Message:     n.message,
		Type:        n.kind,
		Link:        "/applications/" + app.ID.String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "notification emit failed",
			"application_id", app.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func resourceOf(app *models.Application) *policy.Resource {
	return &policy.Resource{OwnerID: app.BorrowerID, MFIID: app.MFIID}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
