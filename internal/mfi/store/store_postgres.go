package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"grameengo/internal/mfi/models"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
	"grameengo/pkg/platform/tx"
)

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresStore persists the catalog in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type mfiRow struct {
	ID                 uuid.UUID      `db:"id"`
	Name               string         `db:"name"`
	Description        string         `db:"description"`
	MinLoanAmount      float64        `db:"min_loan_amount"`
	MaxLoanAmount      float64        `db:"max_loan_amount"`
	InterestRate       float64        `db:"interest_rate"`
	ProcessingTimeDays int            `db:"processing_time_days"`
	CollateralRequired bool           `db:"collateral_required"`
	TenureOptions      pq.Int64Array  `db:"tenure_options"`
	Requirements       pq.StringArray `db:"requirements"`
	Website            string         `db:"website"`
	ContactEmail       string         `db:"contact_email"`
	ContactPhone       string         `db:"contact_phone"`
	LogoURL            string         `db:"logo_url"`
	CreatedAt          time.Time      `db:"created_at"`
}

const mfiColumns = `id, name, description, min_loan_amount, max_loan_amount, interest_rate,
	processing_time_days, collateral_required, tenure_options, requirements,
	website, contact_email, contact_phone, logo_url, created_at`

func (r mfiRow) toModel() *models.MFI {
	return &models.MFI{
		ID:                 id.MFIID(r.ID),
		Name:               r.Name,
		Description:        r.Description,
		MinLoanAmount:      r.MinLoanAmount,
		MaxLoanAmount:      r.MaxLoanAmount,
		InterestRate:       r.InterestRate,
		ProcessingTimeDays: r.ProcessingTimeDays,
		CollateralRequired: r.CollateralRequired,
		TenureOptions:      toInts(r.TenureOptions),
		Requirements:       toStrings(r.Requirements),
		Website:            r.Website,
		ContactEmail:       r.ContactEmail,
		ContactPhone:       r.ContactPhone,
		LogoURL:            r.LogoURL,
		CreatedAt:          r.CreatedAt.UTC(),
	}
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.MFI, error) {
	var rows []mfiRow
	err := tx.Pick(ctx, s.db).SelectContext(ctx, &rows, `SELECT `+mfiColumns+` FROM mfis ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list mfis: %w", err)
	}
	out := make([]*models.MFI, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, mfiID id.MFIID) (*models.MFI, error) {
	var row mfiRow
	err := tx.Pick(ctx, s.db).GetContext(ctx, &row, `SELECT `+mfiColumns+` FROM mfis WHERE id = $1`, uuid.UUID(mfiID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find mfi by id: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) Create(ctx context.Context, m *models.MFI) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO mfis (`+mfiColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(m.ID), m.Name, m.Description, m.MinLoanAmount, m.MaxLoanAmount, m.InterestRate,
		m.ProcessingTimeDays, m.CollateralRequired, pq.Array(toInt64s(m.TenureOptions)), pq.Array(m.Requirements),
		m.Website, m.ContactEmail, m.ContactPhone, m.LogoURL, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create mfi: %w", err)
	}
	return nil
}

type productRow struct {
	ID                  uuid.UUID      `db:"id"`
	MFIID               uuid.UUID      `db:"mfi_id"`
	Name                string         `db:"name"`
	Description         string         `db:"description"`
	MinAmount           float64        `db:"min_amount"`
	MaxAmount           float64        `db:"max_amount"`
	InterestRate        float64        `db:"interest_rate"`
	TenureMonths        pq.Int64Array  `db:"tenure_months"`
	EligibilityCriteria pq.StringArray `db:"eligibility_criteria"`
}

const productColumns = `id, mfi_id, name, description, min_amount, max_amount, interest_rate,
	tenure_months, eligibility_criteria`

func (s *PostgresStore) ListProducts(ctx context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error) {
	query := `SELECT ` + productColumns + ` FROM loan_products`
	var args []any
	if mfiID != nil {
		query += ` WHERE mfi_id = $1`
		args = append(args, uuid.UUID(*mfiID))
	}
	query += ` ORDER BY mfi_id, name`

	var rows []productRow
	if err := tx.Pick(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list loan products: %w", err)
	}
	out := make([]*models.LoanProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.LoanProduct{
			ID:                  id.LoanProductID(r.ID),
			MFIID:               id.MFIID(r.MFIID),
			Name:                r.Name,
			Description:         r.Description,
			MinAmount:           r.MinAmount,
			MaxAmount:           r.MaxAmount,
			InterestRate:        r.InterestRate,
			TenureMonths:        toInts(r.TenureMonths),
			EligibilityCriteria: toStrings(r.EligibilityCriteria),
		})
	}
	return out, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.LoanProduct) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO loan_products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(p.ID), uuid.UUID(p.MFIID), p.Name, p.Description, p.MinAmount, p.MaxAmount,
		p.InterestRate, pq.Array(toInt64s(p.TenureMonths)), pq.Array(p.EligibilityCriteria),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create loan product: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toInts(in pq.Int64Array) []int {
	out := make([]int, 0, len(in))
	for _, v := range in {
		out = append(out, int(v))
	}
	return out
}

func toInt64s(in []int) []int64 {
	out := make([]int64, 0, len(in))
	for _, v := range in {
		out = append(out, int64(v))
	}
	return out
}

func toStrings(in pq.StringArray) []string {
	if in == nil {
		return []string{}
	}
	return []string(in)
}
