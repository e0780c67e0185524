package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"grameengo/internal/application/metrics"
	"grameengo/internal/application/models"
	"grameengo/internal/application/store"
	mfimodels "grameengo/internal/mfi/models"
	mfistore "grameengo/internal/mfi/store"
	notificationmodels "grameengo/internal/notification/models"
	notificationservice "grameengo/internal/notification/service"
	notificationstore "grameengo/internal/notification/store"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	audit "grameengo/pkg/platform/audit"
	"grameengo/pkg/platform/audit/publishers/compliance"
	auditmemory "grameengo/pkg/platform/audit/store/memory"
	"grameengo/pkg/requestcontext"
)

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, notificationmodels.Draft) error {
	return errors.New("smtp down")
}

type ServiceSuite struct {
	suite.Suite
	svc      *Service
	apps     *store.InMemory
	audits   *auditmemory.InMemoryStore
	notes    *notificationservice.Service
	metrics  *metrics.Metrics
	mfi      *mfimodels.MFI
	borrower id.Actor
	officer  id.Actor
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mfis := mfistore.NewInMemory()
	mfi, err := mfimodels.NewMFI(mfimodels.MFI{
		ID:            id.MFIID(uuid.New()),
		Name:          "BRAC",
		MinLoanAmount: 10000,
		MaxLoanAmount: 500000,
		InterestRate:  24,
		TenureOptions: []int{6, 12, 18},
		CreatedAt:     s.now,
	})
	s.Require().NoError(err)
	s.Require().NoError(mfis.Create(context.Background(), mfi))
	s.mfi = mfi

	s.apps = store.NewInMemory()
	s.audits = auditmemory.NewInMemoryStore()
	s.notes = notificationservice.New(notificationstore.NewInMemory())
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = New(s.apps, mfis,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithComplianceAudit(compliance.New(s.audits)),
		WithNotifier(s.notes),
	)

	s.borrower = id.Actor{ID: id.UserID(uuid.New()), Role: id.RoleBorrower, Name: "Amina"}
	s.officer = id.Actor{ID: id.UserID(uuid.New()), Role: id.RoleOfficer, Name: "Kamal"}
}

func (s *ServiceSuite) as(actor id.Actor) context.Context {
	ctx := requestcontext.WithActor(context.Background(), actor)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ServiceSuite) draft() models.Draft {
	mfiID := s.mfi.ID
	return models.Draft{
		MFIID:            &mfiID,
		BusinessName:     "  Amina   Tailoring ",
		BusinessType:     "tailoring",
		BusinessAgeYears: 3,
		MonthlyRevenue:   45000,
		LoanAmount:       50000,
		LoanPurpose:      "sewing machines",
		TenureMonths:     12,
	}
}

func (s *ServiceSuite) submit() *models.Application {
	app, err := s.svc.Create(s.as(s.borrower), s.draft())
	s.Require().NoError(err)
	return app
}

func (s *ServiceSuite) TestCreate() {
	s.Run("borrower submits", func() {
		app := s.submit()
		s.Equal(models.StatusSubmitted, app.Status)
		s.Equal(s.borrower.ID, app.BorrowerID)
		s.Equal("Amina Tailoring", app.BusinessName)
		s.Equal(s.now, app.CreatedAt)

		events, err := s.audits.ListByActor(context.Background(), s.borrower.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventApplicationSubmitted), events[0].Action)
		s.Equal(audit.CategoryCompliance, events[0].Category)

		inbox, err := s.notes.List(s.as(s.borrower))
		s.Require().NoError(err)
		s.Require().Len(inbox, 1)
		s.Equal("Application Submitted", inbox[0].Title)
		s.Equal("/applications/"+app.ID.String(), inbox[0].Link)
	})

	s.Run("every failing field reported", func() {
		d := s.draft()
		d.BusinessName = ""
		d.LoanAmount = 600000
		d.TenureMonths = 7
		_, err := s.svc.Create(s.as(s.borrower), d)

		var verr *dErrors.ValidationErrors
		s.Require().ErrorAs(err, &verr)
		s.Len(verr.Fields, 3)
	})

	s.Run("unknown mfi", func() {
		d := s.draft()
		missing := id.MFIID(uuid.New())
		d.MFIID = &missing
		_, err := s.svc.Create(s.as(s.borrower), d)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("officers cannot submit", func() {
		_, err := s.svc.Create(s.as(s.officer), s.draft())
		var authz *dErrors.AuthorizationError
		s.Require().ErrorAs(err, &authz)
		s.Equal(dErrors.ReasonWrongRole, authz.Reason)
	})
}

func (s *ServiceSuite) TestReadScoping() {
	app := s.submit()
	stranger := id.Actor{ID: id.UserID(uuid.New()), Role: id.RoleBorrower}

	got, err := s.svc.Get(s.as(s.borrower), app.ID)
	s.Require().NoError(err)
	s.Equal(app.ID, got.ID)

	_, err = s.svc.Get(s.as(stranger), app.ID)
	var authz *dErrors.AuthorizationError
	s.Require().ErrorAs(err, &authz)
	s.Equal(dErrors.ReasonNotOwner, authz.Reason)

	_, err = s.svc.Get(s.as(s.officer), id.ApplicationID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	mine, err := s.svc.List(s.as(stranger))
	s.Require().NoError(err)
	s.Empty(mine)

	all, err := s.svc.List(s.as(s.officer))
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ServiceSuite) TestTransitionLifecycle() {
	app := s.submit()
	ctx := s.as(s.officer)

	reviewed, err := s.svc.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: models.StatusUnderReview})
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, reviewed.Status)
	s.Equal(s.officer.ID, *reviewed.OfficerID)

	approved, err := s.svc.Transition(ctx, TransitionCommand{
		ApplicationID: app.ID,
		Status:        models.StatusApproved,
		OfficerNotes:  "documents verified",
	})
	s.Require().NoError(err)
	s.Equal("documents verified", *approved.OfficerNotes)

	disbursed, err := s.svc.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: models.StatusDisbursed})
	s.Require().NoError(err)
	s.Require().NotNil(disbursed.DisbursedAt)

	s.InDelta(1, testutil.ToFloat64(s.metrics.Transitions.WithLabelValues("approved")), 0)

	inbox, err := s.notes.List(s.as(s.borrower))
	s.Require().NoError(err)
	s.Require().Len(inbox, 4)
	messages := make([]string, 0, len(inbox))
	for _, n := range inbox {
		messages = append(messages, n.Message)
	}
	s.Contains(messages, "Your loan has been disbursed successfully!")

	events, err := s.audits.ListByActor(context.Background(), s.officer.ID)
	s.Require().NoError(err)
	s.Len(events, 3)
	s.Equal("approved", events[2].FromStatus)
}

func (s *ServiceSuite) TestTransitionFailures() {
	app := s.submit()
	ctx := s.as(s.officer)

	s.Run("borrower cannot transition", func() {
		_, err := s.svc.Transition(s.as(s.borrower), TransitionCommand{ApplicationID: app.ID, Status: models.StatusApproved, OfficerNotes: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("approval needs notes", func() {
		_, err := s.svc.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: models.StatusApproved})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("state machine refuses skipping to disbursed", func() {
		_, err := s.svc.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: models.StatusDisbursed})
		var te *dErrors.TransitionError
		s.Require().ErrorAs(err, &te)
		s.Equal("submitted", te.From)
	})

	s.Run("stale expected status is a conflict", func() {
		stale := models.StatusUnderReview
		_, err := s.svc.Transition(ctx, TransitionCommand{
			ApplicationID:  app.ID,
			Status:         models.StatusApproved,
			OfficerNotes:   "ok",
			ExpectedStatus: &stale,
		})
		var ce *dErrors.ConflictError
		s.Require().ErrorAs(err, &ce)
		s.Equal("submitted", ce.Actual)
		s.InDelta(1, testutil.ToFloat64(s.metrics.Conflicts), 0)
	})

	s.Run("officer outside the institution", func() {
		scoped := s.officer
		scoped.MFIID = id.MFIID(uuid.New())
		_, err := s.svc.Transition(s.as(scoped), TransitionCommand{ApplicationID: app.ID, Status: models.StatusUnderReview})
		var authz *dErrors.AuthorizationError
		s.Require().ErrorAs(err, &authz)
		s.Equal(dErrors.ReasonOutOfScope, authz.Reason)
	})

	got, err := s.svc.Get(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, got.Status, "no failed request changed the record")
}

func (s *ServiceSuite) TestRejectionDefaultsNotes() {
	app := s.submit()
	rejected, err := s.svc.Transition(s.as(s.officer), TransitionCommand{
		ApplicationID:   app.ID,
		Status:          models.StatusRejected,
		RejectionReason: "insufficient revenue history",
	})
	s.Require().NoError(err)
	s.Equal(models.DefaultRejectionNotes, *rejected.OfficerNotes)
	s.Equal("insufficient revenue history", *rejected.RejectionReason)
}

func (s *ServiceSuite) TestNotificationFailureDoesNotFailTransition() {
	app := s.submit()
	s.svc.notifier = failingEmitter{}

	_, err := s.svc.Transition(s.as(s.officer), TransitionCommand{ApplicationID: app.ID, Status: models.StatusUnderReview})
	s.NoError(err)
}
