package models

import (
	"slices"
	"strings"
	"time"

	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	pstrings "grameengo/pkg/platform/strings"
)

// MFI is a lending institution and the terms applications are checked
// against.
//
// Invariants:
//   - Name is non-empty
//   - 0 < MinLoanAmount ≤ MaxLoanAmount
//   - InterestRate ≥ 0
//   - TenureOptions holds distinct positive month counts, ascending; empty
//     means any positive tenure is accepted
//   - Requirements are trimmed, non-empty and distinct, in display order
//
// An MFI is read-only once created; applications reference it by ID.
type MFI struct {
	ID                 id.MFIID  `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	MinLoanAmount      float64   `json:"min_loan_amount"`
	MaxLoanAmount      float64   `json:"max_loan_amount"`
	InterestRate       float64   `json:"interest_rate"`
	ProcessingTimeDays int       `json:"processing_time_days"`
	CollateralRequired bool      `json:"collateral_required"`
	TenureOptions      []int     `json:"tenure_options"`
	Requirements       []string  `json:"requirements"`
	Website            string    `json:"website,omitempty"`
	ContactEmail       string    `json:"contact_email,omitempty"`
	ContactPhone       string    `json:"contact_phone,omitempty"`
	LogoURL            string    `json:"logo_url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Terms is the subset of an MFI the validation engine needs.
type Terms struct {
	MinLoanAmount float64
	MaxLoanAmount float64
	TenureOptions []int
}

func (m *MFI) Terms() Terms {
	return Terms{
		MinLoanAmount: m.MinLoanAmount,
		MaxLoanAmount: m.MaxLoanAmount,
		TenureOptions: m.TenureOptions,
	}
}

// RestrictsTenure reports whether only listed tenures are accepted.
func (t Terms) RestrictsTenure() bool { return len(t.TenureOptions) > 0 }

// AllowsTenure reports whether months is acceptable under these terms.
func (t Terms) AllowsTenure(months int) bool {
	if months <= 0 {
		return false
	}
	if !t.RestrictsTenure() {
		return true
	}
	return slices.Contains(t.TenureOptions, months)
}

// InBounds reports whether amount lies in [MinLoanAmount, MaxLoanAmount].
func (t Terms) InBounds(amount float64) bool {
	return amount >= t.MinLoanAmount && amount <= t.MaxLoanAmount
}

// NewMFI normalizes m and checks its invariants.
func NewMFI(m MFI) (*MFI, error) {
	m.Name = pstrings.CollapseSpace(m.Name)
	m.Description = strings.TrimSpace(m.Description)
	m.Requirements = pstrings.DistinctFold(m.Requirements)
	m.TenureOptions = NormalizeTenures(m.TenureOptions)

	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *MFI) validate() error {
	if m.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "mfi id is required")
	}
	if m.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "mfi name is required")
	}
	if m.MinLoanAmount <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "min_loan_amount must be positive")
	}
	if m.MinLoanAmount > m.MaxLoanAmount {
		return dErrors.New(dErrors.CodeInvariantViolation, "min_loan_amount must not exceed max_loan_amount")
	}
	if m.InterestRate < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "interest_rate must not be negative")
	}
	if m.ProcessingTimeDays < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "processing_time_days must not be negative")
	}
	for _, t := range m.TenureOptions {
		if t <= 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, "tenure options must be positive")
		}
	}
	return nil
}

// NormalizeTenures sorts and de-duplicates tenure options.
func NormalizeTenures(tenures []int) []int {
	out := slices.Clone(tenures)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int{}
	}
	return out
}
