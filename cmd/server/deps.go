package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	analyticsservice "grameengo/internal/analytics/service"
	appmetrics "grameengo/internal/application/metrics"
	appservice "grameengo/internal/application/service"
	appstore "grameengo/internal/application/store"
	jwttoken "grameengo/internal/jwt_token"
	mfimetrics "grameengo/internal/mfi/metrics"
	mfiservice "grameengo/internal/mfi/service"
	mfistore "grameengo/internal/mfi/store"
	notificationservice "grameengo/internal/notification/service"
	notificationstore "grameengo/internal/notification/store"
	"grameengo/internal/platform/config"
	"grameengo/internal/platform/kafka"
	"grameengo/internal/platform/postgres"
	platformredis "grameengo/internal/platform/redis"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/audit/publisher"
	"grameengo/pkg/platform/audit/publishers/compliance"
	auditmemory "grameengo/pkg/platform/audit/store/memory"
	auditpostgres "grameengo/pkg/platform/audit/store/postgres"
	"grameengo/pkg/platform/audit/worker"
	"grameengo/pkg/platform/middleware/ratelimit"
	"grameengo/pkg/platform/tx"
)

// securityBuffer is the async queue size for authorization denial events.
const securityBuffer = 256

// auditBackend is an audit store that doubles as the relay outbox.
type auditBackend interface {
	audit.Store
	audit.Outbox
}

// applicationStore serves both the lifecycle and the portfolio reads.
type applicationStore interface {
	appservice.Store
	analyticsservice.Source
}

type storage struct {
	applications  applicationStore
	catalog       mfistore.Backend
	notifications notificationservice.Store
	audit         auditBackend
	runner        tx.Runner
}

// deps is everything the router and the background loops need.
type deps struct {
	storage string

	applications  *appservice.Service
	mfis          *mfiservice.Service
	analytics     *analyticsservice.Service
	notifications *notificationservice.Service
	tokens        *jwttoken.JWTService
	limiter       *ratelimit.Limiter

	db     *sqlx.DB
	redis  *platformredis.Client
	worker *worker.Worker

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func (d *deps) onClose(fn func()) { d.closers = append(d.closers, fn) }

// buildDeps selects backends from cfg: postgres when DATABASE_URL is set,
// otherwise memory; a redis catalog cache when REDIS_URL is set; the kafka
// outbox relay when KAFKA_BROKERS is set.
func buildDeps(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer, migrate bool) (_ *deps, err error) {
	d := &deps{}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	st, err := d.openStorage(ctx, cfg, log, migrate)
	if err != nil {
		return nil, err
	}

	inserted, err := mfistore.Seed(ctx, st.catalog, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if inserted > 0 {
		log.Info("seeded mfi catalog", "inserted", inserted)
	}

	catalogMetrics := mfimetrics.New(reg)
	catalog := st.catalog
	d.redis, err = platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if d.redis != nil {
		d.onClose(func() { _ = d.redis.Close() })
		catalog = mfistore.NewCached(catalog, d.redis.Client, cfg.Redis.CatalogTTL,
			mfistore.WithCacheMetrics(catalogMetrics),
			mfistore.WithCacheLogger(log),
		)
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		d.onClose(producer.Close)
		if err := producer.EnsureTopic(ctx, int32(cfg.Kafka.Partitions), 1); err != nil {
			return nil, err
		}
		d.worker = worker.NewWorker(st.audit, producer,
			worker.WithInterval(cfg.Kafka.OutboxInterval),
			worker.WithBatchSize(cfg.Kafka.OutboxBatch),
			worker.WithLogger(log),
			worker.WithRegisterer(reg),
		)
	}

	complianceAudit := compliance.New(st.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	securityAudit := publisher.NewPublisher(st.audit,
		publisher.WithAsyncBuffer(securityBuffer),
		publisher.WithLogger(log),
	)
	d.onClose(securityAudit.Close)

	d.notifications = notificationservice.New(st.notifications,
		notificationservice.WithLogger(log),
		notificationservice.WithAuditPublisher(securityAudit),
	)
	d.mfis = mfiservice.New(catalog,
		mfiservice.WithLogger(log),
		mfiservice.WithMetrics(catalogMetrics),
		mfiservice.WithTxRunner(st.runner),
		mfiservice.WithAuditPublisher(complianceAudit),
	)
	d.applications = appservice.New(st.applications, catalog,
		appservice.WithLogger(log),
		appservice.WithMetrics(appmetrics.New(reg)),
		appservice.WithTxRunner(st.runner),
		appservice.WithComplianceAudit(complianceAudit),
		appservice.WithSecurityAudit(securityAudit),
		appservice.WithNotifier(d.notifications),
	)
	d.analytics = analyticsservice.New(st.applications, log)
	d.tokens = jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	d.limiter = ratelimit.New(cfg.Limits.ApplicationsPerMinute, cfg.Limits.ApplicationsBurst, log)
	return d, nil
}

func (d *deps) openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (*storage, error) {
	if cfg.Database.URL == "" {
		d.storage = "memory"
		return &storage{
			applications:  appstore.NewInMemory(),
			catalog:       mfistore.NewInMemory(),
			notifications: notificationstore.NewInMemory(),
			audit:         auditmemory.NewInMemoryStore(),
			runner:        tx.InlineRunner{},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	d.db = db
	d.storage = "postgres"
	d.onClose(func() { _ = db.Close() })

	if migrate {
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			return nil, err
		}
		log.Info("applied migrations", "versions", applied)
	}
	return &storage{
		applications:  appstore.NewPostgres(db),
		catalog:       mfistore.NewPostgres(db),
		notifications: notificationstore.NewPostgres(db),
		audit:         auditpostgres.New(db),
		runner:        tx.NewPostgresRunner(db, cfg.Database.TxTimeout),
	}, nil
}
