package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"grameengo/internal/application/models"
	"grameengo/internal/policy"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
	"grameengo/pkg/platform/tx"
)

// PostgresStore persists applications in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type applicationRow struct {
	ID               uuid.UUID      `db:"id"`
	BorrowerID       uuid.UUID      `db:"borrower_id"`
	MFIID            uuid.UUID      `db:"mfi_id"`
	Status           string         `db:"status"`
	BusinessName     string         `db:"business_name"`
	BusinessType     string         `db:"business_type"`
	BusinessAgeYears int            `db:"business_age_years"`
	MonthlyRevenue   float64        `db:"monthly_revenue"`
	LoanAmount       float64        `db:"loan_amount"`
	LoanPurpose      string         `db:"loan_purpose"`
	TenureMonths     int            `db:"tenure_months"`
	OfficerID        uuid.NullUUID  `db:"officer_id"`
	OfficerNotes     sql.NullString `db:"officer_notes"`
	RejectionReason  sql.NullString `db:"rejection_reason"`
	DisbursedAt      sql.NullTime   `db:"disbursed_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

const applicationColumns = `id, borrower_id, mfi_id, status, business_name, business_type,
	business_age_years, monthly_revenue, loan_amount, loan_purpose, tenure_months,
	officer_id, officer_notes, rejection_reason, disbursed_at, created_at, updated_at`

func (r applicationRow) toModel() *models.Application {
	app := &models.Application{
		ID:               id.ApplicationID(r.ID),
		BorrowerID:       id.UserID(r.BorrowerID),
		MFIID:            id.MFIID(r.MFIID),
		Status:           models.Status(r.Status),
		BusinessName:     r.BusinessName,
		BusinessType:     r.BusinessType,
		BusinessAgeYears: r.BusinessAgeYears,
		MonthlyRevenue:   r.MonthlyRevenue,
		LoanAmount:       r.LoanAmount,
		LoanPurpose:      r.LoanPurpose,
		TenureMonths:     r.TenureMonths,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.OfficerID.Valid {
		officer := id.UserID(r.OfficerID.UUID)
		app.OfficerID = &officer
	}
	if r.OfficerNotes.Valid {
		app.OfficerNotes = &r.OfficerNotes.String
	}
	if r.RejectionReason.Valid {
		app.RejectionReason = &r.RejectionReason.String
	}
	if r.DisbursedAt.Valid {
		at := r.DisbursedAt.Time.UTC()
		app.DisbursedAt = &at
	}
	return app
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		uuid.UUID(app.ID), uuid.UUID(app.BorrowerID), uuid.UUID(app.MFIID), string(app.Status),
		app.BusinessName, app.BusinessType, app.BusinessAgeYears, app.MonthlyRevenue,
		app.LoanAmount, app.LoanPurpose, app.TenureMonths,
		nullOfficer(app.OfficerID), app.OfficerNotes, app.RejectionReason, app.DisbursedAt,
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	var row applicationRow
	err := tx.Pick(ctx, s.db).GetContext(ctx, &row,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, uuid.UUID(appID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) List(ctx context.Context, filter policy.Filter, limit int) ([]*models.Application, error) {
	var (
		where []string
		args  []any
	)
	if !filter.BorrowerID.IsNil() {
		args = append(args, uuid.UUID(filter.BorrowerID))
		where = append(where, fmt.Sprintf("borrower_id = $%d", len(args)))
	}
	if !filter.MFIID.IsNil() {
		args = append(args, uuid.UUID(filter.MFIID))
		where = append(where, fmt.Sprintf("mfi_id = $%d", len(args)))
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []applicationRow
	if err := tx.Pick(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]*models.Application, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate and
// mutate, and writes back with an UPDATE conditioned on the status it read.
// It joins a transaction already in context, otherwise it opens its own.
func (s *PostgresStore) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	if t, ok := tx.From(ctx); ok {
		return s.execute(ctx, t, appID, validate, mutate)
	}

	t, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin application update: %w", err)
	}
	defer func() { _ = t.Rollback() }()

	app, err := s.execute(ctx, t, appID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := t.Commit(); err != nil {
		return nil, fmt.Errorf("commit application update: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) execute(ctx context.Context, t *sqlx.Tx, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	var row applicationRow
	err := t.GetContext(ctx, &row,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, uuid.UUID(appID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock application: %w", err)
	}

	app := row.toModel()
	read := app.Status
	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	res, err := t.ExecContext(ctx, `
		UPDATE applications
		SET status = $3, officer_id = $4, officer_notes = $5, rejection_reason = $6,
			disbursed_at = $7, updated_at = $8
		WHERE id = $1 AND status = $2`,
		uuid.UUID(app.ID), string(read), string(app.Status), nullOfficer(app.OfficerID),
		app.OfficerNotes, app.RejectionReason, app.DisbursedAt, app.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if n == 0 {
		return nil, sentinel.ErrConflict
	}
	return app, nil
}

func nullOfficer(officer *id.UserID) uuid.NullUUID {
	if officer == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*officer), Valid: true}
}
