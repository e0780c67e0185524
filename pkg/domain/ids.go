// Package domain holds identity primitives shared across modules: typed IDs,
// roles and the acting principal.
//
// Typed IDs prevent passing an MFI ID where an application ID is expected.
// Construct them with the Parse* functions at trust boundaries (path params,
// token claims); inside the core, convert from uuid.UUID directly.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "grameengo/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	MFIID          uuid.UUID
	LoanProductID  uuid.UUID
	ApplicationID  uuid.UUID
	NotificationID uuid.UUID
)

// parseUUID enforces the shared invariant: non-empty, well-formed, non-nil.
func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParseMFIID(s string) (MFIID, error) {
	u, err := parseUUID("mfi id", s)
	return MFIID(u), err
}

func ParseLoanProductID(s string) (LoanProductID, error) {
	u, err := parseUUID("loan product id", s)
	return LoanProductID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID("application id", s)
	return ApplicationID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID("notification id", s)
	return NotificationID(u), err
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id MFIID) String() string          { return uuid.UUID(id).String() }
func (id LoanProductID) String() string  { return uuid.UUID(id).String() }
func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id MFIID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id LoanProductID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps IDs as canonical strings in JSON and YAML.

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id MFIID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id LoanProductID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ApplicationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MFIID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LoanProductID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApplicationID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
