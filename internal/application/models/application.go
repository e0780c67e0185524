package models

import (
	"time"

	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	pstrings "grameengo/pkg/platform/strings"
)

// DefaultRejectionNotes is recorded as officer notes on a rejection that
// came without any.
const DefaultRejectionNotes = "Application rejected"

// Application is one borrower's request against one MFI.
//
// Invariants:
//   - RejectionReason is set iff Status == StatusRejected
//   - OfficerID and OfficerNotes are set only once an officer has acted
//   - DisbursedAt is set iff Status == StatusDisbursed
//   - UpdatedAt ≥ CreatedAt
//
// Applications are never deleted.
type Application struct {
	ID               id.ApplicationID `json:"id"`
	BorrowerID       id.UserID        `json:"borrower_id"`
	MFIID            id.MFIID         `json:"mfi_id"`
	Status           Status           `json:"status"`
	BusinessName     string           `json:"business_name"`
	BusinessType     string           `json:"business_type"`
	BusinessAgeYears int              `json:"business_age_years"`
	MonthlyRevenue   float64          `json:"monthly_revenue"`
	LoanAmount       float64          `json:"loan_amount"`
	LoanPurpose      string           `json:"loan_purpose"`
	TenureMonths     int              `json:"tenure_months"`
	OfficerID        *id.UserID       `json:"officer_id,omitempty"`
	OfficerNotes     *string          `json:"officer_notes,omitempty"`
	RejectionReason  *string          `json:"rejection_reason,omitempty"`
	DisbursedAt      *time.Time       `json:"disbursed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Draft is a borrower's submission before validation. MFIID is nil when the
// request did not name one.
type Draft struct {
	MFIID            *id.MFIID
	BusinessName     string
	BusinessType     string
	BusinessAgeYears int
	MonthlyRevenue   float64
	LoanAmount       float64
	LoanPurpose      string
	TenureMonths     int
}

// Normalize trims free text in place.
func (d *Draft) Normalize() {
	d.BusinessName = pstrings.CollapseSpace(d.BusinessName)
	d.BusinessType = pstrings.CollapseSpace(d.BusinessType)
	d.LoanPurpose = pstrings.CollapseSpace(d.LoanPurpose)
}

// NewApplication builds a submitted application from a validated draft.
func NewApplication(appID id.ApplicationID, borrower id.UserID, mfi id.MFIID, d Draft, now time.Time) (*Application, error) {
	if appID.IsNil() || borrower.IsNil() || mfi.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "application requires id, borrower and mfi")
	}
	return &Application{
		ID:               appID,
		BorrowerID:       borrower,
		MFIID:            mfi,
		Status:           StatusSubmitted,
		BusinessName:     d.BusinessName,
		BusinessType:     d.BusinessType,
		BusinessAgeYears: d.BusinessAgeYears,
		MonthlyRevenue:   d.MonthlyRevenue,
		LoanAmount:       d.LoanAmount,
		LoanPurpose:      d.LoanPurpose,
		TenureMonths:     d.TenureMonths,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Transition is a validated request to move an application to To.
type Transition struct {
	To              Status
	OfficerID       id.UserID
	OfficerNotes    string
	RejectionReason string
}

// CanTransition checks the state machine only.
func (a *Application) CanTransition(to Status) error {
	if !a.Status.CanTransitionTo(to) {
		return dErrors.NewTransition(string(a.Status), string(to))
	}
	return nil
}

// ApplyTransition moves a to t.To and records the officer's effects.
// Callers check CanTransition first.
func (a *Application) ApplyTransition(t Transition, now time.Time) {
	officer := t.OfficerID
	a.Status = t.To
	a.OfficerID = &officer

	switch t.To {
	case StatusUnderReview:
		if t.OfficerNotes != "" {
			a.OfficerNotes = strPtr(t.OfficerNotes)
		}
	case StatusApproved:
		a.OfficerNotes = strPtr(t.OfficerNotes)
		a.RejectionReason = nil
	case StatusRejected:
		notes := t.OfficerNotes
		if notes == "" {
			notes = DefaultRejectionNotes
		}
		a.OfficerNotes = strPtr(notes)
		a.RejectionReason = strPtr(t.RejectionReason)
	case StatusDisbursed:
		if t.OfficerNotes != "" {
			a.OfficerNotes = strPtr(t.OfficerNotes)
		}
		disbursed := now
		a.DisbursedAt = &disbursed
	}

	if now.Before(a.CreatedAt) {
		now = a.CreatedAt
	}
	a.UpdatedAt = now
}

func strPtr(s string) *string { return &s }
