package models

import (
	"strings"

	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	pstrings "grameengo/pkg/platform/strings"
)

// LoanProduct is a named offering of an MFI.
// Invariant: 0 < MinAmount ≤ MaxAmount.
type LoanProduct struct {
	ID                  id.LoanProductID `json:"id"`
	MFIID               id.MFIID         `json:"mfi_id"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	MinAmount           float64          `json:"min_amount"`
	MaxAmount           float64          `json:"max_amount"`
	InterestRate        float64          `json:"interest_rate"`
	TenureMonths        []int            `json:"tenure_months"`
	EligibilityCriteria []string         `json:"eligibility_criteria"`
}

func NewLoanProduct(p LoanProduct) (*LoanProduct, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.TenureMonths = NormalizeTenures(p.TenureMonths)
	p.EligibilityCriteria = pstrings.DistinctFold(p.EligibilityCriteria)
	if p.ID.IsNil() || p.MFIID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "loan product requires id and mfi_id")
	}
	if p.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "loan product name is required")
	}
	if p.MinAmount <= 0 || p.MinAmount > p.MaxAmount {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "loan product amount bounds are invalid")
	}
	return &p, nil
}
