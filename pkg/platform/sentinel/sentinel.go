// Package sentinel holds infrastructure facts that stores return (optionally
// wrapped) and services translate into domain errors:
//   - ErrNotFound: no such record
//   - ErrAlreadyUsed: a uniqueness constraint rejected the write
//   - ErrConflict: a conditional write lost a race
//   - ErrUnavailable: backing service unreachable
//
// Validation and policy failures are domain errors, not sentinels.
package sentinel

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
