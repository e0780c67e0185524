package domain

import dErrors "grameengo/pkg/domain-errors"

// Role is the actor's platform role.
// Invariant: one of borrower, officer, admin.
type Role string

const (
	RoleBorrower Role = "borrower"
	RoleOfficer  Role = "officer"
	RoleAdmin    Role = "admin"
)

var validRoles = map[Role]bool{
	RoleBorrower: true,
	RoleOfficer:  true,
	RoleAdmin:    true,
}

// ParseRole constructs a Role from token claims or other external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool { return validRoles[r] }

// IsStaff reports whether the role reviews applications.
func (r Role) IsStaff() bool { return r == RoleOfficer || r == RoleAdmin }

func (r Role) String() string { return string(r) }

// Actor is the authenticated principal making a call. It is passed
// explicitly into every core operation.
//
// MFIID is set only for officers whose deployment partitions review work
// by institution.
type Actor struct {
	ID    UserID
	Role  Role
	Name  string
	Email string
	MFIID MFIID
}

// HasMFIScope reports whether the actor is restricted to one institution.
func (a Actor) HasMFIScope() bool { return a.Role == RoleOfficer && !a.MFIID.IsNil() }
