package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grameengo/internal/application/models"
	mfimodels "grameengo/internal/mfi/models"
	dErrors "grameengo/pkg/domain-errors"
)

func terms() *mfimodels.Terms {
	return &mfimodels.Terms{MinLoanAmount: 10000, MaxLoanAmount: 500000, TenureOptions: []int{6, 12, 18}}
}

func validDraft() models.Draft {
	return models.Draft{
		BusinessName:     "Rahim Tailoring",
		BusinessType:     "Retail",
		BusinessAgeYears: 3,
		MonthlyRevenue:   40000,
		LoanAmount:       50000,
		LoanPurpose:      "Buy sewing machines",
		TenureMonths:     12,
	}
}

func fieldsOf(t *testing.T, err error) map[string]dErrors.FieldError {
	t.Helper()
	var v *dErrors.ValidationErrors
	require.ErrorAs(t, err, &v)
	out := make(map[string]dErrors.FieldError, len(v.Fields))
	for _, f := range v.Fields {
		out[f.Field] = f
	}
	return out
}

func TestValidateDraft(t *testing.T) {
	t.Run("valid draft passes", func(t *testing.T) {
		assert.NoError(t, ValidateDraft(validDraft(), terms()))
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		d := validDraft()
		d.LoanAmount = 10000
		assert.NoError(t, ValidateDraft(d, terms()))
		d.LoanAmount = 500000
		assert.NoError(t, ValidateDraft(d, terms()))
	})

	t.Run("amount above max cites both bounds", func(t *testing.T) {
		d := validDraft()
		d.LoanAmount = 600000
		fields := fieldsOf(t, ValidateDraft(d, terms()))
		require.Contains(t, fields, "loan_amount")
		f := fields["loan_amount"]
		assert.Equal(t, "must be between 10000 and 500000", f.Reason)
		require.NotNil(t, f.Min)
		require.NotNil(t, f.Max)
		assert.Equal(t, 10000.0, *f.Min)
		assert.Equal(t, 500000.0, *f.Max)
	})

	t.Run("reports every failing field at once", func(t *testing.T) {
		d := models.Draft{BusinessAgeYears: -1, MonthlyRevenue: -5, LoanAmount: 1, TenureMonths: 7}
		fields := fieldsOf(t, ValidateDraft(d, terms()))
		for _, name := range []string{
			"business_name", "business_type", "business_age_years", "monthly_revenue",
			"loan_purpose", "loan_amount", "tenure_months",
		} {
			assert.Contains(t, fields, name)
		}
		assert.Equal(t, "must be one of 6, 12, 18", fields["tenure_months"].Reason)
	})

	t.Run("whitespace-only text is missing", func(t *testing.T) {
		d := validDraft()
		d.LoanPurpose = "   "
		assert.Contains(t, fieldsOf(t, ValidateDraft(d, terms())), "loan_purpose")
	})

	t.Run("unrestricted tenure accepts any positive month count", func(t *testing.T) {
		open := &mfimodels.Terms{MinLoanAmount: 1000, MaxLoanAmount: 90000}
		d := validDraft()
		d.LoanAmount = 5000
		d.TenureMonths = 7
		assert.NoError(t, ValidateDraft(d, open))

		d.TenureMonths = 0
		assert.Contains(t, fieldsOf(t, ValidateDraft(d, open)), "tenure_months")
	})

	t.Run("missing mfi is a field error", func(t *testing.T) {
		fields := fieldsOf(t, ValidateDraft(validDraft(), nil))
		assert.Contains(t, fields, "mfi_id")
		assert.NotContains(t, fields, "loan_amount")
	})
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name  string
		req   TransitionRequest
		field string
	}{
		{"approve with notes", TransitionRequest{Status: models.StatusApproved, OfficerNotes: "Good history"}, ""},
		{"approve without notes", TransitionRequest{Status: models.StatusApproved}, "officer_notes"},
		{"reject with reason", TransitionRequest{Status: models.StatusRejected, RejectionReason: "Insufficient revenue"}, ""},
		{"reject without reason", TransitionRequest{Status: models.StatusRejected, RejectionReason: " "}, "rejection_reason"},
		{"review needs nothing", TransitionRequest{Status: models.StatusUnderReview}, ""},
		{"reason outside rejection", TransitionRequest{Status: models.StatusDisbursed, RejectionReason: "x"}, "rejection_reason"},
		{"unknown status", TransitionRequest{Status: "archived"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}
