package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"grameengo/pkg/domain"
	"grameengo/pkg/requestcontext"
)

// WithActor attaches an authenticated actor to the request, as the auth
// middleware would.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// NewActor returns an actor with a fresh ID.
func NewActor(role domain.Role) domain.Actor {
	return domain.Actor{ID: domain.UserID(uuid.New()), Role: role}
}

// Borrower, Officer and Admin are shorthands for NewActor.
func Borrower() domain.Actor { return NewActor(domain.RoleBorrower) }
func Officer() domain.Actor  { return NewActor(domain.RoleOfficer) }
func Admin() domain.Actor    { return NewActor(domain.RoleAdmin) }
