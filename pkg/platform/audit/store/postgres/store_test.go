package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "grameengo/pkg/domain"
	audit "grameengo/pkg/platform/audit"
	txcontext "grameengo/pkg/platform/tx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "pgx"), mock
}

func TestAppendUsesTransactionFromContext(t *testing.T) {
	db, mock := newMock(t)
	appID := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(sqlmock.AnyArg(), "application", appID, "application_submitted", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	ctx := txcontext.WithTx(context.Background(), tx)

	err = New(db).Append(ctx, audit.Event{
		Action:      string(audit.EventApplicationSubmitted),
		ActorID:     id.UserID(uuid.New()),
		SubjectType: "application",
		SubjectID:   appID,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaim(t *testing.T) {
	entryID := uuid.New()
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload", "created_at"}).
			AddRow(entryID.String(), "app-1", "application_transitioned", []byte(`{}`), time.Now())
	}

	t.Run("marks published after publish succeeds", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(10).WillReturnRows(rows())
		mock.ExpectExec(`UPDATE outbox SET published_at = \$1 WHERE id IN \(\$2\)`).
			WithArgs(sqlmock.AnyArg(), entryID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var got []audit.OutboxEntry
		n, err := New(db).Claim(context.Background(), 10, func(_ context.Context, batch []audit.OutboxEntry) error {
			got = batch
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.Len(t, got, 1)
		assert.Equal(t, "app-1", got[0].AggregateID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when publish fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(10).WillReturnRows(rows())
		mock.ExpectRollback()

		_, err := New(db).Claim(context.Background(), 10, func(context.Context, []audit.OutboxEntry) error {
			return errors.New("broker down")
		})
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
