// Package service serves dashboard aggregates over the applications the
// caller is allowed to see.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"grameengo/internal/analytics/models"
	appmodels "grameengo/internal/application/models"
	"grameengo/internal/policy"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/requestcontext"
)

// Source yields a snapshot of applications. A limit of 0 means all.
type Source interface {
	List(ctx context.Context, filter policy.Filter, limit int) ([]*appmodels.Application, error)
}

type Service struct {
	source Source
	logger *slog.Logger
	tracer trace.Tracer
}

func New(source Source, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		logger: logger,
		tracer: otel.Tracer("grameengo/internal/analytics"),
	}
}

func (s *Service) Stats(ctx context.Context) (models.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.Stats")
	defer span.End()

	apps, err := s.snapshot(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(apps), nil
}

func (s *Service) Trends(ctx context.Context, order models.Order, limit int) ([]models.TrendBucket, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.Trends")
	defer span.End()

	apps, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return models.MonthlyTrends(apps, order, limit), nil
}

func (s *Service) snapshot(ctx context.Context) ([]*appmodels.Application, error) {
	actor := requestcontext.Actor(ctx)
	if err := policy.Require(actor, policy.ActionAnalyticsRead, nil); err != nil {
		s.logger.WarnContext(ctx, "analytics access denied",
			"actor_id", actor.ID.String(),
			"role", string(actor.Role),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}
	apps, err := s.source.List(ctx, policy.Scope(actor), 0)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applications")
	}
	return apps, nil
}
