// Package service records lifecycle notifications and serves them back to
// their recipients. Delivery beyond the store (push, email, sms) belongs to
// consumers of the audit stream.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"grameengo/internal/notification/models"
	"grameengo/internal/policy"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/sentinel"
	"grameengo/pkg/requestcontext"
)

// ListLimit caps GET /notifications.
const ListLimit = 50

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipient id.UserID, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, recipient id.UserID, nID id.NotificationID) (*models.Notification, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit persists a notification for d.RecipientID and records an audit event.
// An audit failure is logged; the notification is already stored.
func (s *Service) Emit(ctx context.Context, d models.Draft) error {
	n, err := models.NewNotification(id.NotificationID(uuid.New()), d, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	if err := s.store.Create(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notification")
	}
	s.audit(ctx, audit.EventNotificationSent, n)
	return nil
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Notification, error) {
	actor := requestcontext.Actor(ctx)
	if err := policy.Require(actor, policy.ActionNotificationRead, nil); err != nil {
		return nil, err
	}
	items, err := s.store.ListByRecipient(ctx, actor.ID, ListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, nID id.NotificationID) (*models.Notification, error) {
	actor := requestcontext.Actor(ctx)
	if err := policy.Require(actor, policy.ActionNotificationRead, nil); err != nil {
		return nil, err
	}
	n, err := s.store.MarkRead(ctx, actor.ID, nID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NewNotFound("notification", nID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification")
	}
	s.audit(ctx, audit.EventNotificationRead, n)
	return n, nil
}

func (s *Service) audit(ctx context.Context, event audit.AuditEvent, n *models.Notification) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:      string(event),
		ActorID:     n.RecipientID,
		SubjectType: "notification",
		SubjectID:   n.ID.String(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "notification audit failed",
			"event", string(event),
			"notification_id", n.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
