// Package domainerrors defines the error vocabulary shared by services and
// transports. Services return these; handlers translate them to HTTP through
// httputil.WriteError.
//
// Two shapes exist:
//   - *Error: a code plus a message, optionally wrapping a cause.
//   - Detail errors (ValidationErrors, NotFoundError, AuthorizationError,
//     TransitionError, ConflictError) that carry structured fields callers
//     can branch on.
//
// Both satisfy the Coded interface so HasCode works on either.
package domainerrors

import (
	"errors"
	"fmt"
	"strings"

	"grameengo/pkg/platform/sentinel"
)

// Code is a stable, transport-independent error identifier.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeRateLimited        Code = "rate_limited"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Coded is implemented by every error in this package.
type Coded interface {
	error
	ErrorCode() Code
}

// Error is the general-purpose domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrorCode() Code { return e.Code }

// New creates a domain error with the given code.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeInternal
}

// Message returns the client-safe message of the outermost domain error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Error()
	}
	return ""
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code Code) bool {
	for err != nil {
		if coded, ok := err.(Coded); ok && coded.ErrorCode() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field  string   `json:"field"`
	Reason string   `json:"reason"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// ValidationErrors collects every field failure of one input. It is only
// returned when non-empty.
type ValidationErrors struct {
	Fields []FieldError
}

// Add records a field failure.
func (v *ValidationErrors) Add(field, reason string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Reason: reason})
}

// AddBounds records a range failure citing both bounds.
func (v *ValidationErrors) AddBounds(field string, min, max float64) {
	v.Fields = append(v.Fields, FieldError{
		Field:  field,
		Reason: fmt.Sprintf("must be between %s and %s", formatAmount(min), formatAmount(max)),
		Min:    &min,
		Max:    &max,
	})
}

// Err returns v when it holds failures, nil otherwise.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) ErrorCode() Code { return CodeValidation }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string   { return e.Entity + " not found" }
func (e *NotFoundError) ErrorCode() Code { return CodeNotFound }

// Denial reasons.
const (
	ReasonWrongRole  = "wrong_role"
	ReasonNotOwner   = "not_owner"
	ReasonOutOfScope = "out_of_scope"
)

// AuthorizationError reports a policy denial.
type AuthorizationError struct {
	Action string
	Reason string
}

func NewAuthorization(action, reason string) error {
	return &AuthorizationError{Action: action, Reason: reason}
}

func (e *AuthorizationError) Error() string {
	switch e.Reason {
	case ReasonNotOwner:
		return "not permitted: " + e.Action + " is limited to the owning borrower"
	case ReasonWrongRole:
		return "not permitted: role cannot perform " + e.Action
	case ReasonOutOfScope:
		return "not permitted: " + e.Action + " is outside the actor's institution"
	}
	return "not permitted: " + e.Action
}

func (e *AuthorizationError) ErrorCode() Code { return CodeForbidden }

// TransitionError reports a status change the state machine does not allow.
type TransitionError struct {
	From string
	To   string
}

func NewTransition(from, to string) error {
	return &TransitionError{From: from, To: to}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) ErrorCode() Code { return CodeInvalidTransition }

// ConflictError reports an optimistic concurrency failure: the stored status
// moved away from the one the caller observed.
type ConflictError struct {
	Expected string
	Actual   string
}

func NewConflict(expected, actual string) error {
	return &ConflictError{Expected: expected, Actual: actual}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("status changed concurrently: expected %s, found %s", e.Expected, e.Actual)
}

func (e *ConflictError) ErrorCode() Code { return CodeConflict }

// Unwrap lets callers match the store-level fact with errors.Is.
func (e *ConflictError) Unwrap() error { return sentinel.ErrConflict }

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
