package models

import (
	dErrors "grameengo/pkg/domain-errors"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusDisbursed   Status = "disbursed"
)

// transitions is the whole state machine. Anything not listed, including
// staying in the same state, is refused.
var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusDisbursed},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusDisbursed:
		return true
	}
	return false
}

// IsPending reports whether a decision is still outstanding.
func (s Status) IsPending() bool { return s == StatusSubmitted || s == StatusUnderReview }

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool { return len(transitions[s]) == 0 }

func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }
