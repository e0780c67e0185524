package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"grameengo/internal/mfi/models"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
)

//go:embed catalog.yaml
var catalogYAML []byte

// seedNamespace derives stable IDs so reseeding a database is idempotent and
// every deployment agrees on the IDs of the bundled MFIs.
var seedNamespace = uuid.MustParse("6f1c9a52-4f7e-4c43-9a53-2f0d8f4b7e10")

type catalogFile struct {
	TenureOptions    []int             `yaml:"tenure_options"`
	ProductTemplates []productTemplate `yaml:"product_templates"`
	MFIs             []catalogMFI      `yaml:"mfis"`
}

type productTemplate struct {
	Name                string   `yaml:"name"`
	Description         string   `yaml:"description"`
	MinAmount           float64  `yaml:"min_amount"`
	MaxAmountCap        float64  `yaml:"max_amount_cap"`
	InterestRateOffset  float64  `yaml:"interest_rate_offset"`
	TenureMonths        []int    `yaml:"tenure_months"`
	EligibilityCriteria []string `yaml:"eligibility_criteria"`
}

type catalogMFI struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	MinLoanAmount      float64  `yaml:"min_loan_amount"`
	MaxLoanAmount      float64  `yaml:"max_loan_amount"`
	InterestRate       float64  `yaml:"interest_rate"`
	ProcessingTimeDays int      `yaml:"processing_time_days"`
	CollateralRequired bool     `yaml:"collateral_required"`
	Requirements       []string `yaml:"requirements"`
	Website            string   `yaml:"website"`
	ContactEmail       string   `yaml:"contact_email"`
	ContactPhone       string   `yaml:"contact_phone"`
}

// Seeder is the write side of a catalog store.
type Seeder interface {
	Create(ctx context.Context, m *models.MFI) error
	CreateProduct(ctx context.Context, p *models.LoanProduct) error
}

// SeedID returns the stable ID of a bundled MFI.
func SeedID(name string) id.MFIID {
	return id.MFIID(uuid.NewSHA1(seedNamespace, []byte("mfi/"+name)))
}

func seedProductID(mfiName, productName string) id.LoanProductID {
	return id.LoanProductID(uuid.NewSHA1(seedNamespace, []byte("product/"+mfiName+"/"+productName)))
}

// LoadCatalog parses the embedded catalog into validated models.
func LoadCatalog(now time.Time) ([]*models.MFI, []*models.LoanProduct, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}

	var mfis []*models.MFI
	var products []*models.LoanProduct
	for _, c := range file.MFIs {
		m, err := models.NewMFI(models.MFI{
			ID:                 SeedID(c.Name),
			Name:               c.Name,
			Description:        c.Description,
			MinLoanAmount:      c.MinLoanAmount,
			MaxLoanAmount:      c.MaxLoanAmount,
			InterestRate:       c.InterestRate,
			ProcessingTimeDays: c.ProcessingTimeDays,
			CollateralRequired: c.CollateralRequired,
			TenureOptions:      file.TenureOptions,
			Requirements:       c.Requirements,
			Website:            c.Website,
			ContactEmail:       c.ContactEmail,
			ContactPhone:       c.ContactPhone,
			CreatedAt:          now,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("catalog mfi %q: %w", c.Name, err)
		}
		mfis = append(mfis, m)

		for _, t := range file.ProductTemplates {
			p, err := models.NewLoanProduct(t.instantiate(m))
			if err != nil {
				return nil, nil, fmt.Errorf("catalog product %q/%q: %w", c.Name, t.Name, err)
			}
			products = append(products, p)
		}
	}
	return mfis, products, nil
}

func (t productTemplate) instantiate(m *models.MFI) models.LoanProduct {
	minAmount := t.MinAmount
	if minAmount == 0 {
		minAmount = m.MinLoanAmount
	}
	maxAmount := m.MaxLoanAmount
	if t.MaxAmountCap > 0 && t.MaxAmountCap < maxAmount {
		maxAmount = t.MaxAmountCap
	}
	return models.LoanProduct{
		ID:                  seedProductID(m.Name, t.Name),
		MFIID:               m.ID,
		Name:                t.Name,
		Description:         t.Description,
		MinAmount:           minAmount,
		MaxAmount:           maxAmount,
		InterestRate:        m.InterestRate + t.InterestRateOffset,
		TenureMonths:        t.TenureMonths,
		EligibilityCriteria: t.EligibilityCriteria,
	}
}

// Seed writes the bundled catalog into s. Entries that already exist are
// skipped, so it is safe to run on every start. It returns how many MFIs
// were inserted.
func Seed(ctx context.Context, s Seeder, now time.Time) (int, error) {
	mfis, products, err := LoadCatalog(now)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, m := range mfis {
		err := s.Create(ctx, m)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, sentinel.ErrAlreadyUsed):
		default:
			return inserted, fmt.Errorf("seed mfi %q: %w", m.Name, err)
		}
	}
	for _, p := range products {
		if err := s.CreateProduct(ctx, p); err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return inserted, fmt.Errorf("seed loan product %q: %w", p.Name, err)
		}
	}
	return inserted, nil
}
