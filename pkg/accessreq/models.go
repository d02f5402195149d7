// Package accessreq implements per-user access requests for confidential
// RFPs: submission by the requesting user and the admin approve/reject
// workflow. An approved request is what the access engine checks when it
// grants a client reviewer entry to a confidential RFP.
package accessreq

import (
	"errors"
	"fmt"
	"time"
)

// Status of an access request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// AccessRequestRecord is a GORM model for one user's request to access
// one RFP. The (rfp_id, user_id) pair is unique; a rejected request is
// not resubmittable.
type AccessRequestRecord struct {
	ID     string `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	RFPID  string `gorm:"column:rfp_id;uniqueIndex:idx_accessreq_rfp_user,priority:1;not null" json:"rfpId"`
	UserID string `gorm:"column:user_id;uniqueIndex:idx_accessreq_rfp_user,priority:2;not null" json:"userId"`
	Status Status `gorm:"column:status;index:idx_accessreq_status;default:pending;not null" json:"status"`

	Message string `gorm:"column:message" json:"message,omitempty"`

	DecidedBy    string     `gorm:"column:decided_by" json:"decidedBy,omitempty"`
	DecisionNote string     `gorm:"column:decision_note" json:"decisionNote,omitempty"`
	DecidedAt    *time.Time `gorm:"column:decided_at" json:"decidedAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (AccessRequestRecord) TableName() string { return "rfp_access_requests" }

// ErrNotFound is returned when a referenced access request does not exist.
var ErrNotFound = errors.New("accessreq: not found")

// ErrDuplicate is returned when the user already has a request for the
// RFP, whatever its status.
var ErrDuplicate = errors.New("accessreq: request already exists")

// ErrRFPNotFound is returned when a submission targets an RFP that does
// not exist.
var ErrRFPNotFound = errors.New("accessreq: rfp not found")

// StateConflictError reports a decision attempted against a request that
// is no longer pending, including the loser of a concurrent decision
// race.
type StateConflictError struct {
	ID      string `json:"id"`
	Current Status `json:"current"`
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("access request %s is %s, expected %s", e.ID, e.Current, StatusPending)
}

// ValidationError reports a missing or malformed caller-supplied field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
