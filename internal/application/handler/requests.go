package handler

import (
	"grameengo/internal/application/models"
	"grameengo/internal/application/service"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/httputil"
)

var createSchema = httputil.MustCompileSchema(`{
	"type": "object",
	"properties": {
		"mfi_id":             {"type": "string"},
		"business_name":      {"type": "string"},
		"business_type":      {"type": "string"},
		"business_age_years": {"type": "integer"},
		"monthly_revenue":    {"type": "number"},
		"loan_amount":        {"type": "number"},
		"loan_purpose":       {"type": "string"},
		"tenure_months":      {"type": "integer"}
	}
}`)

var transitionSchema = httputil.MustCompileSchema(`{
	"type": "object",
	"properties": {
		"status":           {"type": "string"},
		"officer_notes":    {"type": ["string", "null"]},
		"rejection_reason": {"type": ["string", "null"]},
		"expected_status":  {
			"type": ["string", "null"],
			"enum": ["submitted", "under_review", "approved", "rejected", "disbursed", null]
		}
	}
}`)

type createRequest struct {
	MFIID            string  `json:"mfi_id"`
	BusinessName     string  `json:"business_name"`
	BusinessType     string  `json:"business_type"`
	BusinessAgeYears int     `json:"business_age_years"`
	MonthlyRevenue   float64 `json:"monthly_revenue"`
	LoanAmount       float64 `json:"loan_amount"`
	LoanPurpose      string  `json:"loan_purpose"`
	TenureMonths     int     `json:"tenure_months"`
}

// toDraft leaves MFIID nil when mfi_id was omitted so validation reports
// it alongside the other fields. A present but malformed id is a bad
// request.
func (r createRequest) toDraft() (models.Draft, error) {
	d := models.Draft{
		BusinessName:     r.BusinessName,
		BusinessType:     r.BusinessType,
		BusinessAgeYears: r.BusinessAgeYears,
		MonthlyRevenue:   r.MonthlyRevenue,
		LoanAmount:       r.LoanAmount,
		LoanPurpose:      r.LoanPurpose,
		TenureMonths:     r.TenureMonths,
	}
	if r.MFIID != "" {
		mfiID, err := id.ParseMFIID(r.MFIID)
		if err != nil {
			return models.Draft{}, err
		}
		d.MFIID = &mfiID
	}
	return d, nil
}

type transitionRequest struct {
	Status          string  `json:"status"`
	OfficerNotes    *string `json:"officer_notes"`
	RejectionReason *string `json:"rejection_reason"`
	ExpectedStatus  *string `json:"expected_status"`
}

func (r transitionRequest) toCommand(appID id.ApplicationID) service.TransitionCommand {
	cmd := service.TransitionCommand{
		ApplicationID: appID,
		Status:        models.Status(r.Status),
	}
	if r.OfficerNotes != nil {
		cmd.OfficerNotes = *r.OfficerNotes
	}
	if r.RejectionReason != nil {
		cmd.RejectionReason = *r.RejectionReason
	}
	if r.ExpectedStatus != nil {
		expected := models.Status(*r.ExpectedStatus)
		cmd.ExpectedStatus = &expected
	}
	return cmd
}
