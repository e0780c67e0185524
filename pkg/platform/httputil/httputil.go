// Package httputil translates domain results into JSON HTTP responses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "grameengo/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeValidation:         http.StatusUnprocessableEntity,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeForbidden:          http.StatusForbidden,
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeInvalidTransition:  http.StatusConflict,
	dErrors.CodeRateLimited:        http.StatusTooManyRequests,
	dErrors.CodeTimeout:            http.StatusGatewayTimeout,
	dErrors.CodeInvariantViolation: http.StatusUnprocessableEntity,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

// StatusFor maps a domain code to its HTTP status.
func StatusFor(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope for err:
//
//	{"error": "<code>", "error_description": "<message>", ...details}
//
// Internal errors never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]any{"error": code}
	if code != dErrors.CodeInternal {
		if msg := dErrors.Message(err); msg != "" {
			body["error_description"] = msg
		}
		addDetails(body, err)
	}
	WriteJSON(w, StatusFor(code), body)
}

func addDetails(body map[string]any, err error) {
	var verr *dErrors.ValidationErrors
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
		return
	}
	var nf *dErrors.NotFoundError
	if errors.As(err, &nf) {
		body["entity"] = nf.Entity
		if nf.ID != "" {
			body["id"] = nf.ID
		}
		return
	}
	var authz *dErrors.AuthorizationError
	if errors.As(err, &authz) {
		body["action"] = authz.Action
		body["reason"] = authz.Reason
		return
	}
	var te *dErrors.TransitionError
	if errors.As(err, &te) {
		body["from"] = te.From
		body["to"] = te.To
		return
	}
	var ce *dErrors.ConflictError
	if errors.As(err, &ce) {
		body["expected_status"] = ce.Expected
		body["actual_status"] = ce.Actual
	}
}
