package nda

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced NDA does not exist. Distinct
// from an authorization denial: absence of a record is never a denial by
// itself.
var ErrNotFound = errors.New("nda: not found")

// ErrRFPNotFound is returned when a signature targets an RFP that does
// not exist.
var ErrRFPNotFound = errors.New("nda: rfp not found")

// StateConflictError reports a lifecycle operation attempted against a
// record not in the required prior state, including the loser of a
// concurrent countersign/reject race. Recoverable by refetching.
type StateConflictError struct {
	ID      string `json:"id"`
	Current Status `json:"current"`
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("nda %s is %s, expected %s", e.ID, e.Current, StatusSigned)
}

// ValidationError reports a missing or malformed caller-supplied field.
// No state mutation occurs when it is returned.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
