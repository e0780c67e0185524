// Package auth authenticates bearer tokens and places the resulting actor in
// the request context. Tokens are issued by the external identity provider;
// this service only validates them.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"grameengo/pkg/domain"
	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/httputil"
	request "grameengo/pkg/platform/middleware/request"
	"grameengo/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID string
	Role   string
	Name   string
	Email  string
	MFIID  string
}

// Actor converts validated claims into a domain actor. Claims that do not
// parse are treated as an invalid token.
func (c *JWTClaims) Actor() (domain.Actor, error) {
	userID, err := domain.ParseUserID(c.UserID)
	if err != nil {
		return domain.Actor{}, err
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Actor{}, err
	}
	actor := domain.Actor{ID: userID, Role: role, Name: c.Name, Email: c.Email}
	if c.MFIID != "" {
		mfiID, err := uuid.Parse(c.MFIID)
		if err != nil {
			return domain.Actor{}, dErrors.New(dErrors.CodeInvalidInput, "invalid mfi scope")
		}
		actor.MFIID = domain.MFIID(mfiID)
	}
	return actor, nil
}

func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			actor, err := claims.Actor()
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed claims",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}
