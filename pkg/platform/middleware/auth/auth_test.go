package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"grameengo/pkg/domain"
	"grameengo/pkg/requestcontext"
	"grameengo/pkg/testutil"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

type RequireAuthSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestRequireAuthSuite(t *testing.T) {
	suite.Run(t, new(RequireAuthSuite))
}

func (s *RequireAuthSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RequireAuthSuite) serve(v JWTValidator, header string) (*httptest.ResponseRecorder, domain.Actor) {
	var got domain.Actor
	h := RequireAuth(v, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got
}

func (s *RequireAuthSuite) TestRejections() {
	s.Run("missing header", func() {
		rec, _ := s.serve(stubValidator{}, "")
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("invalid token", func() {
		rec, _ := s.serve(stubValidator{err: errors.New("expired")}, "Bearer abc")
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("unknown role claim", func() {
		claims := &JWTClaims{UserID: uuid.NewString(), Role: "auditor"}
		rec, _ := s.serve(stubValidator{claims: claims}, "Bearer abc")
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("malformed mfi scope", func() {
		claims := &JWTClaims{UserID: uuid.NewString(), Role: "officer", MFIID: "nope"}
		rec, _ := s.serve(stubValidator{claims: claims}, "Bearer abc")
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *RequireAuthSuite) TestPopulatesActor() {
	userID := uuid.New()
	mfiID := uuid.New()
	claims := &JWTClaims{UserID: userID.String(), Role: "officer", Name: "Rahima", MFIID: mfiID.String()}

	rec, actor := s.serve(stubValidator{claims: claims}, "Bearer abc")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(domain.UserID(userID), actor.ID)
	s.Equal(domain.RoleOfficer, actor.Role)
	s.Equal(domain.MFIID(mfiID), actor.MFIID)
	s.True(actor.HasMFIScope())
}
