package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"grameengo/internal/notification/models"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
	"grameengo/pkg/platform/tx"
)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type notificationRow struct {
	ID          uuid.UUID `db:"id"`
	RecipientID uuid.UUID `db:"recipient_id"`
	Title       string    `db:"title"`
	Message     string    `db:"message"`
	Type        string    `db:"type"`
	Read        bool      `db:"read"`
	Link        string    `db:"link"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r notificationRow) toModel() *models.Notification {
	return &models.Notification{
		ID:          id.NotificationID(r.ID),
		RecipientID: id.UserID(r.RecipientID),
		Title:       r.Title,
		Message:     r.Message,
		Type:        models.Type(r.Type),
		Read:        r.Read,
		Link:        r.Link,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

const notificationColumns = `id, recipient_id, title, message, type, read, link, created_at`

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(n.ID), uuid.UUID(n.RecipientID), n.Title, n.Message, string(n.Type), n.Read, n.Link, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipient id.UserID, limit int) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE recipient_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{uuid.UUID(recipient)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows []notificationRow
	if err := tx.Pick(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*models.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, recipient id.UserID, nID id.NotificationID) (*models.Notification, error) {
	var row notificationRow
	err := tx.Pick(ctx, s.db).GetContext(ctx, &row, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING `+notificationColumns,
		uuid.UUID(nID), uuid.UUID(recipient),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return row.toModel(), nil
}
