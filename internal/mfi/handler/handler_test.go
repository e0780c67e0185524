package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"grameengo/internal/mfi/handler/mocks"
	"grameengo/internal/mfi/models"
	"grameengo/internal/mfi/service"
	id "grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

func newRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func TestList(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().List(gomock.Any()).Return(nil, nil)

	rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/mfis"))
	testutil.AssertStatusOK(t, rec)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGet(t *testing.T) {
	mfiID := id.MFIID(uuid.New())

	t.Run("found", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Get(gomock.Any(), mfiID).Return(&models.MFI{ID: mfiID, Name: "BRAC"}, nil)

		rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/mfis/"+mfiID.String()))
		testutil.AssertStatusOK(t, rec)
		testutil.AssertJSONContains(t, rec, "name", "BRAC")
	})

	t.Run("missing", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Get(gomock.Any(), mfiID).Return(nil, dErrors.NewNotFound("mfi", mfiID.String()))

		rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/mfis/"+mfiID.String()))
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})

	t.Run("malformed id", func(t *testing.T) {
		r, _ := newRouter(t)
		rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/mfis/nope"))
		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestCreate(t *testing.T) {
	t.Run("trims and passes through", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req service.CreateRequest) (*models.MFI, error) {
				assert.Equal(t, "Padakhep", req.Name)
				assert.Equal(t, []int{12, 24}, req.TenureOptions)
				return &models.MFI{ID: id.MFIID(uuid.New()), Name: req.Name}, nil
			})

		rec := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/mfis", map[string]any{
			"name":            "  Padakhep ",
			"min_loan_amount": 5000,
			"max_loan_amount": 300000,
			"interest_rate":   22,
			"tenure_options":  []int{12, 24},
		}))
		testutil.AssertStatus(t, rec, http.StatusCreated)
	})

	t.Run("wrong json types", func(t *testing.T) {
		r, _ := newRouter(t)
		rec := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/mfis", `{"name":"X","tenure_options":["twelve"]}`))
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	})

	t.Run("duplicate", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeConflict, "an mfi with this name already exists"))

		rec := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/mfis", map[string]any{"name": "BRAC"}))
		testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
	})
}

func TestListProducts(t *testing.T) {
	mfiID := id.MFIID(uuid.New())

	t.Run("filtered", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().ListProducts(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, filter *id.MFIID) ([]*models.LoanProduct, error) {
				require.NotNil(t, filter)
				assert.Equal(t, mfiID, *filter)
				return []*models.LoanProduct{{MFIID: mfiID, Name: "Micro Business Loan"}}, nil
			})

		rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/loan-products?mfi_id="+mfiID.String()))
		testutil.AssertStatusOK(t, rec)
	})

	t.Run("unfiltered", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().ListProducts(gomock.Any(), (*id.MFIID)(nil)).Return(nil, nil)

		rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/loan-products"))
		testutil.AssertStatusOK(t, rec)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("malformed filter", func(t *testing.T) {
		r, _ := newRouter(t)
		rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/loan-products?mfi_id=abc"))
		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})
}
