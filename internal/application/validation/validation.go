// Package validation checks application drafts against an MFI's terms and
// officer transition requests for their required fields. Every check runs
// and every failure is reported together. No I/O.
package validation

import (
	"strconv"
	"strings"

	"grameengo/internal/application/models"
	mfimodels "grameengo/internal/mfi/models"
	dErrors "grameengo/pkg/domain-errors"
)

const (
	reasonRequired     = "is required"
	reasonNonNegative  = "must not be negative"
	reasonPositive     = "must be greater than 0"
	reasonNotAllowedMo = "must be one of "
)

// ValidateDraft returns nil or a *dErrors.ValidationErrors listing every
// failing field. terms is nil when the draft named no MFI; the checks that
// depend on the MFI then fall back to basic positivity.
func ValidateDraft(d models.Draft, terms *mfimodels.Terms) error {
	var v dErrors.ValidationErrors

	if terms == nil {
		v.Add("mfi_id", reasonRequired)
	}
	if strings.TrimSpace(d.BusinessName) == "" {
		v.Add("business_name", reasonRequired)
	}
	if strings.TrimSpace(d.BusinessType) == "" {
		v.Add("business_type", reasonRequired)
	}
	if d.BusinessAgeYears < 0 {
		v.Add("business_age_years", reasonNonNegative)
	}
	if d.MonthlyRevenue < 0 {
		v.Add("monthly_revenue", reasonNonNegative)
	}
	if strings.TrimSpace(d.LoanPurpose) == "" {
		v.Add("loan_purpose", reasonRequired)
	}

	switch {
	case terms == nil:
		if d.LoanAmount <= 0 {
			v.Add("loan_amount", reasonPositive)
		}
	case !terms.InBounds(d.LoanAmount):
		v.AddBounds("loan_amount", terms.MinLoanAmount, terms.MaxLoanAmount)
	}

	switch {
	case d.TenureMonths <= 0:
		v.Add("tenure_months", reasonPositive)
	case terms != nil && !terms.AllowsTenure(d.TenureMonths):
		v.Add("tenure_months", reasonNotAllowedMo+joinInts(terms.TenureOptions))
	}

	return v.Err()
}

// TransitionRequest is an officer's raw request before the state machine
// is consulted.
type TransitionRequest struct {
	Status          models.Status
	OfficerNotes    string
	RejectionReason string
}

// ValidateTransition checks the fields a target status requires: approval
// needs officer notes, rejection needs a reason.
func ValidateTransition(req TransitionRequest) error {
	var v dErrors.ValidationErrors
	if !req.Status.IsValid() {
		v.Add("status", "must be one of submitted, under_review, approved, rejected, disbursed")
		return v.Err()
	}
	switch req.Status {
	case models.StatusApproved:
		if strings.TrimSpace(req.OfficerNotes) == "" {
			v.Add("officer_notes", "is required to approve")
		}
	case models.StatusRejected:
		if strings.TrimSpace(req.RejectionReason) == "" {
			v.Add("rejection_reason", "is required to reject")
		}
	}
	if req.Status != models.StatusRejected && strings.TrimSpace(req.RejectionReason) != "" {
		v.Add("rejection_reason", "is only accepted when rejecting")
	}
	return v.Err()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, n := range values {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
