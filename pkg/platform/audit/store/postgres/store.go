package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	id "grameengo/pkg/domain"
	audit "grameengo/pkg/platform/audit"
	txcontext "grameengo/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table, in the caller's transaction when
// one is in context, and relayed to Kafka by the outbox worker.
type Store struct {
	db *sqlx.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := audit.Encode(event)
	if err != nil {
		return err
	}

	aggregateType := event.SubjectType
	aggregateID := event.SubjectID
	if aggregateType == "" {
		aggregateType = "audit"
		aggregateID = event.ID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		aggregateType,
		aggregateID,
		event.Action,
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByActor returns events recorded for an actor, oldest first.
func (s *Store) ListByActor(ctx context.Context, actorID id.UserID) ([]audit.Event, error) {
	var payloads [][]byte
	err := s.db.SelectContext(ctx, &payloads, `
		SELECT payload FROM outbox
		WHERE payload->>'actor_id' = $1
		ORDER BY created_at
	`, actorID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	events := make([]audit.Event, 0, len(payloads))
	for _, p := range payloads {
		e, err := audit.Decode(p)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

type outboxRow struct {
	ID          uuid.UUID `db:"id"`
	AggregateID string    `db:"aggregate_id"`
	EventType   string    `db:"event_type"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}

// Claim locks a batch of unpublished rows with SKIP LOCKED so several relay
// processes can run side by side, publishes them, and marks them published
// in the same transaction.
func (s *Store) Claim(ctx context.Context, limit int, publish func(context.Context, []audit.OutboxEntry) error) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rows []outboxRow
	err = tx.SelectContext(ctx, &rows, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("select outbox batch: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	batch := make([]audit.OutboxEntry, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		batch = append(batch, audit.OutboxEntry(r))
		ids = append(ids, r.ID)
	}
	if err := publish(ctx, batch); err != nil {
		return 0, err
	}

	query, args, err := sqlx.In(`UPDATE outbox SET published_at = ? WHERE id IN (?)`, time.Now(), ids)
	if err != nil {
		return 0, fmt.Errorf("build outbox update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox claim: %w", err)
	}
	return len(rows), nil
}
