// Package worker relays outbox entries to the event stream.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"grameengo/internal/platform/kafka"
	audit "grameengo/pkg/platform/audit"
)

// Producer is the event stream sink.
type Producer interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// Worker polls the outbox and produces each entry keyed by its aggregate
// ID, so all events of one application land on one partition in order.
// Delivery is at least once: a crash between produce and commit replays
// the batch.
type Worker struct {
	outbox   audit.Outbox
	producer Producer
	interval time.Duration
	batch    int
	logger   *slog.Logger

	published prometheus.Counter
	failures  prometheus.Counter
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithRegisterer registers relay counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(w *Worker) {
		f := promauto.With(reg)
		w.published = f.NewCounter(prometheus.CounterOpts{
			Name: "grameengo_outbox_published_total",
			Help: "Outbox entries produced to the event stream",
		})
		w.failures = f.NewCounter(prometheus.CounterOpts{
			Name: "grameengo_outbox_publish_failures_total",
			Help: "Outbox relay batches that failed and will be retried",
		})
	}
}

func NewWorker(outbox audit.Outbox, producer Producer, opts ...Option) *Worker {
	w := &Worker{
		outbox:   outbox,
		producer: producer,
		interval: 2 * time.Second,
		batch:    100,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. A full batch is followed immediately by
// another poll; otherwise the worker waits one interval.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		n, err := w.Tick(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
		}
		if n == w.batch {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick relays at most one batch and returns how many entries it produced.
func (w *Worker) Tick(ctx context.Context) (int, error) {
	n, err := w.outbox.Claim(ctx, w.batch, func(ctx context.Context, entries []audit.OutboxEntry) error {
		msgs := make([]kafka.Message, 0, len(entries))
		for _, e := range entries {
			msgs = append(msgs, kafka.Message{
				Key:   e.AggregateID,
				Value: e.Payload,
				Headers: map[string]string{
					"event_type": e.EventType,
					"event_id":   e.ID.String(),
				},
			})
		}
		return w.producer.Publish(ctx, msgs...)
	})
	if err != nil {
		if w.failures != nil {
			w.failures.Inc()
		}
		return 0, err
	}
	if n > 0 {
		if w.published != nil {
			w.published.Add(float64(n))
		}
		w.logger.DebugContext(ctx, "outbox relayed", "count", n)
	}
	return n, nil
}
