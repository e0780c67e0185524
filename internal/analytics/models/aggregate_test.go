package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmodels "grameengo/internal/application/models"
)

func app(status appmodels.Status, amount float64, created time.Time) *appmodels.Application {
	return &appmodels.Application{Status: status, LoanAmount: amount, CreatedAt: created}
}

func month(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestSummarize(t *testing.T) {
	apps := []*appmodels.Application{
		app(appmodels.StatusSubmitted, 10000, month(2025, 3, 1)),
		app(appmodels.StatusUnderReview, 20000, month(2025, 3, 2)),
		app(appmodels.StatusApproved, 30000, month(2025, 3, 3)),
		app(appmodels.StatusDisbursed, 40000, month(2025, 3, 4)),
		app(appmodels.StatusRejected, 50000, month(2025, 3, 5)),
		app(appmodels.StatusApproved, 60000, month(2025, 3, 6)),
	}

	s := Summarize(apps)

	assert.Equal(t, 6, s.TotalApplications)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 2, s.Approved)
	assert.Equal(t, 1, s.Disbursed)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, s.TotalApplications, s.Approved+s.Rejected+s.Pending+s.Disbursed)
	assert.Equal(t, 210000.0, s.TotalLoanAmount)
	assert.Equal(t, 130000.0, s.ApprovedLoanAmount)
	assert.Equal(t, 50.0, s.ApprovalRate)
}

func TestSummarizeRoundsRate(t *testing.T) {
	apps := []*appmodels.Application{
		app(appmodels.StatusApproved, 1, month(2025, 1, 1)),
		app(appmodels.StatusRejected, 1, month(2025, 1, 1)),
		app(appmodels.StatusSubmitted, 1, month(2025, 1, 1)),
	}
	assert.Equal(t, 33.3, Summarize(apps).ApprovalRate)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestMonthlyTrends(t *testing.T) {
	t.Run("sparse buckets ascending", func(t *testing.T) {
		apps := []*appmodels.Application{
			app(appmodels.StatusSubmitted, 5000, month(2025, 4, 10)),
			app(appmodels.StatusSubmitted, 10000, month(2025, 3, 1)),
			app(appmodels.StatusApproved, 20000, month(2025, 3, 28)),
		}
		got := MonthlyTrends(apps, OrderAsc, 0)
		assert.Equal(t, []TrendBucket{
			{Year: 2025, Month: 3, Count: 2, TotalAmount: 30000},
			{Year: 2025, Month: 4, Count: 1, TotalAmount: 5000},
		}, got)
	})

	t.Run("buckets by UTC month", func(t *testing.T) {
		dhaka := time.FixedZone("BST", 6*60*60)
		late := time.Date(2025, 5, 1, 2, 0, 0, 0, dhaka) // 2025-04-30 20:00 UTC
		got := MonthlyTrends([]*appmodels.Application{app(appmodels.StatusSubmitted, 1, late)}, OrderAsc, 0)
		require.Len(t, got, 1)
		assert.Equal(t, 4, got[0].Month)
	})

	t.Run("limit keeps the most recent months", func(t *testing.T) {
		var apps []*appmodels.Application
		for m := time.January; m <= time.December; m++ {
			apps = append(apps, app(appmodels.StatusSubmitted, 1, month(2024, m, 5)))
		}
		apps = append(apps, app(appmodels.StatusSubmitted, 1, month(2025, 1, 5)))

		got := MonthlyTrends(apps, OrderAsc, DefaultTrendLimit)
		require.Len(t, got, 12)
		assert.Equal(t, TrendBucket{Year: 2024, Month: 2, Count: 1, TotalAmount: 1}, got[0])
		assert.Equal(t, 2025, got[11].Year)

		desc := MonthlyTrends(apps, OrderDesc, 3)
		require.Len(t, desc, 3)
		assert.Equal(t, 2025, desc[0].Year)
		assert.Equal(t, 11, desc[2].Month)
	})

	t.Run("same input same output", func(t *testing.T) {
		apps := []*appmodels.Application{
			app(appmodels.StatusSubmitted, 0.1, month(2025, 6, 1)),
			app(appmodels.StatusSubmitted, 0.2, month(2025, 6, 2)),
		}
		assert.Equal(t, MonthlyTrends(apps, OrderAsc, 0), MonthlyTrends(apps, OrderAsc, 0))
	})
}
