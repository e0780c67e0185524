// Package models computes dashboard aggregates over a set of applications.
// Everything here is a pure function of its input.
package models

import (
	"cmp"
	"math"
	"slices"

	appmodels "grameengo/internal/application/models"
)

// Summary is the stats dashboard. Approved, Rejected, Pending and Disbursed
// partition TotalApplications.
type Summary struct {
	TotalApplications  int     `json:"total_applications"`
	Approved           int     `json:"approved"`
	Pending            int     `json:"pending"`
	Rejected           int     `json:"rejected"`
	Disbursed          int     `json:"disbursed"`
	TotalLoanAmount    float64 `json:"total_loan_amount"`
	ApprovedLoanAmount float64 `json:"approved_loan_amount"`
	ApprovalRate       float64 `json:"approval_rate"`
}

// Summarize counts apps by outcome. TotalLoanAmount sums every record
// regardless of status; ApprovedLoanAmount sums approved and disbursed.
func Summarize(apps []*appmodels.Application) Summary {
	var s Summary
	for _, app := range apps {
		s.TotalApplications++
		s.TotalLoanAmount += app.LoanAmount
		switch {
		case app.Status.IsPending():
			s.Pending++
		case app.Status == appmodels.StatusApproved:
			s.Approved++
			s.ApprovedLoanAmount += app.LoanAmount
		case app.Status == appmodels.StatusDisbursed:
			s.Disbursed++
			s.ApprovedLoanAmount += app.LoanAmount
		case app.Status == appmodels.StatusRejected:
			s.Rejected++
		}
	}
	if s.TotalApplications > 0 {
		rate := float64(s.Approved+s.Disbursed) / float64(s.TotalApplications) * 100
		s.ApprovalRate = math.Round(rate*10) / 10
	}
	return s
}

// TrendBucket is one calendar month with at least one application.
type TrendBucket struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// DefaultTrendLimit is the number of months returned when none is asked for.
const DefaultTrendLimit = 12

// MonthlyTrends buckets apps by the UTC (year, month) of CreatedAt. Only
// months with applications appear. When limit > 0 the most recent limit
// months are kept. Buckets come back ascending unless order is OrderDesc.
func MonthlyTrends(apps []*appmodels.Application, order Order, limit int) []TrendBucket {
	type key struct{ year, month int }
	byMonth := make(map[key]*TrendBucket)
	for _, app := range apps {
		at := app.CreatedAt.UTC()
		k := key{at.Year(), int(at.Month())}
		b, ok := byMonth[k]
		if !ok {
			b = &TrendBucket{Year: k.year, Month: k.month}
			byMonth[k] = b
		}
		b.Count++
		b.TotalAmount += app.LoanAmount
	}

	out := make([]TrendBucket, 0, len(byMonth))
	for _, b := range byMonth {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b TrendBucket) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if order == OrderDesc {
		slices.Reverse(out)
	}
	return out
}
