package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"grameengo/internal/application/models"
	"grameengo/internal/policy"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemorySuite) newApp(borrower id.UserID, mfi id.MFIID, at time.Time) *models.Application {
	app, err := models.NewApplication(id.ApplicationID(uuid.New()), borrower, mfi, models.Draft{
		BusinessName: "Rahim Tailors",
		BusinessType: "tailoring",
		LoanAmount:   50000,
		LoanPurpose:  "sewing machines",
		TenureMonths: 12,
	}, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, app))
	return app
}

func (s *InMemorySuite) TestCreateAndFind() {
	app := s.newApp(id.UserID(uuid.New()), id.MFIID(uuid.New()), s.now)

	got, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.BusinessName, got.BusinessName)

	got.BusinessName = "mutated"
	again, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("Rahim Tailors", again.BusinessName, "returned values are copies")

	s.ErrorIs(s.store.Create(s.ctx, app), sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(s.ctx, id.ApplicationID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestListFiltersAndOrders() {
	borrower := id.UserID(uuid.New())
	mfiA := id.MFIID(uuid.New())
	mfiB := id.MFIID(uuid.New())

	oldest := s.newApp(borrower, mfiA, s.now)
	newest := s.newApp(borrower, mfiB, s.now.Add(2*time.Hour))
	other := s.newApp(id.UserID(uuid.New()), mfiA, s.now.Add(time.Hour))

	s.Run("platform wide sees everything newest first", func() {
		got, err := s.store.List(s.ctx, policy.Filter{}, 0)
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(newest.ID, got[0].ID)
		s.Equal(other.ID, got[1].ID)
		s.Equal(oldest.ID, got[2].ID)
	})

	s.Run("borrower scope", func() {
		got, err := s.store.List(s.ctx, policy.Filter{BorrowerID: borrower}, 0)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("mfi scope", func() {
		got, err := s.store.List(s.ctx, policy.Filter{MFIID: mfiA}, 0)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(other.ID, got[0].ID)
	})

	s.Run("limit", func() {
		got, err := s.store.List(s.ctx, policy.Filter{}, 1)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(newest.ID, got[0].ID)
	})
}

func (s *InMemorySuite) TestExecute() {
	app := s.newApp(id.UserID(uuid.New()), id.MFIID(uuid.New()), s.now)
	officer := id.UserID(uuid.New())

	s.Run("validate failure writes nothing", func() {
		boom := errors.New("nope")
		_, err := s.store.Execute(s.ctx, app.ID,
			func(*models.Application) error { return boom },
			func(a *models.Application) { a.Status = models.StatusApproved },
		)
		s.ErrorIs(err, boom)

		got, _ := s.store.FindByID(s.ctx, app.ID)
		s.Equal(models.StatusSubmitted, got.Status)
	})

	s.Run("mutation is persisted", func() {
		updated, err := s.store.Execute(s.ctx, app.ID,
			func(a *models.Application) error { return a.CanTransition(models.StatusUnderReview) },
			func(a *models.Application) {
				a.ApplyTransition(models.Transition{To: models.StatusUnderReview, OfficerID: officer}, s.now.Add(time.Minute))
			},
		)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, updated.Status)

		got, _ := s.store.FindByID(s.ctx, app.ID)
		s.Equal(models.StatusUnderReview, got.Status)
		s.Equal(officer, *got.OfficerID)
	})

	s.Run("missing application", func() {
		_, err := s.store.Execute(s.ctx, id.ApplicationID(uuid.New()),
			func(*models.Application) error { return nil },
			func(*models.Application) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// Exactly one of many concurrent approvals with the same expected status
// can win; the rest observe the changed status.
func (s *InMemorySuite) TestConcurrentTransitionsHaveOneWinner() {
	app := s.newApp(id.UserID(uuid.New()), id.MFIID(uuid.New()), s.now)
	expected := models.StatusSubmitted

	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, app.ID,
				func(a *models.Application) error {
					if a.Status != expected {
						return dErrors.NewConflict(string(expected), string(a.Status))
					}
					return a.CanTransition(models.StatusApproved)
				},
				func(a *models.Application) {
					a.ApplyTransition(models.Transition{
						To:           models.StatusApproved,
						OfficerID:    id.UserID(uuid.New()),
						OfficerNotes: "ok",
					}, s.now.Add(time.Minute))
				},
			)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.EqualValues(1, wins.Load())
	s.EqualValues(49, conflicts.Load())
}

func (s *InMemorySuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.store.List(ctx, policy.Filter{}, 0)
	s.ErrorIs(err, context.Canceled)
}
