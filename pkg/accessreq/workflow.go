package accessreq

import (
	"fmt"
	"log/slog"

	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/notify"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

// RFPSource provides the RFP lookup the workflow needs. Satisfied by
// *rfp.Store.
type RFPSource interface {
	GetRFP(id string) (*rfp.RFPRecord, error)
}

// Workflow drives access request submission and the admin decision flow.
type Workflow struct {
	store    *Store
	rfps     RFPSource
	notifier notify.Dispatcher
	logger   *slog.Logger
}

// NewWorkflow wires the workflow. A nil notifier disables notifications.
func NewWorkflow(store *Store, rfps RFPSource, notifier notify.Dispatcher, logger *slog.Logger) *Workflow {
	if notifier == nil {
		notifier = notify.NopDispatcher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{store: store, rfps: rfps, notifier: notifier, logger: logger}
}

// Submit files a pending request for the actor against a confidential
// RFP. Public RFPs need no request; submitting one is a validation
// error, not a no-op.
func (w *Workflow) Submit(actor auth.Actor, rfpID, message string) (*AccessRequestRecord, error) {
	if actor.IsAnonymous() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAuthenticated}
	}

	record, err := w.rfps.GetRFP(rfpID)
	if err != nil {
		return nil, fmt.Errorf("load rfp: %w", err)
	}
	if record == nil {
		return nil, ErrRFPNotFound
	}
	if record.Visibility != rfp.VisibilityConfidential {
		return nil, &ValidationError{Field: "rfpId", Message: "rfp is public and needs no access request"}
	}

	rec, err := w.store.Create(rfpID, actor.UserID, message)
	if err != nil {
		return nil, err
	}
	w.logger.Info("access request submitted",
		"requestID", rec.ID, "rfpID", rfpID, "userID", actor.UserID)
	return rec, nil
}

// Approve grants a pending request. Admin-only. The requester is
// notified after the transition commits.
func (w *Workflow) Approve(actor auth.Actor, id, note string) (*AccessRequestRecord, error) {
	if !actor.IsAdmin() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAdmin}
	}

	rec, err := w.store.Decide(id, StatusApproved, actor.UserID, note)
	if err != nil {
		return nil, err
	}

	if dispatchErr := w.notifier.Dispatch(notify.Notification{
		UserID:      rec.UserID,
		Title:       "RFP access granted",
		Message:     "Your request to access a confidential RFP has been approved.",
		Type:        notify.TypeAccessRequestApproved,
		ReferenceID: rec.RFPID,
	}); dispatchErr != nil {
		w.logger.Error("access request notification dispatch failed",
			"requestID", id, "error", dispatchErr)
	}

	w.logger.Info("access request approved", "requestID", id, "actor", actor.UserID)
	return rec, nil
}

// Reject declines a pending request. Admin-only. Rejection does not
// notify; the requester sees the status on their next lookup.
func (w *Workflow) Reject(actor auth.Actor, id, note string) (*AccessRequestRecord, error) {
	if !actor.IsAdmin() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAdmin}
	}

	rec, err := w.store.Decide(id, StatusRejected, actor.UserID, note)
	if err != nil {
		return nil, err
	}
	w.logger.Info("access request rejected", "requestID", id, "actor", actor.UserID)
	return rec, nil
}

// List returns requests for review. Admin-only.
func (w *Workflow) List(actor auth.Actor, rfpID string, status Status, limit int) ([]AccessRequestRecord, error) {
	if !actor.IsAdmin() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAdmin}
	}
	return w.store.List(rfpID, status, limit)
}

// GetMine returns the actor's own request for an RFP, or (nil, nil) when
// none exists.
func (w *Workflow) GetMine(actor auth.Actor, rfpID string) (*AccessRequestRecord, error) {
	if actor.IsAnonymous() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAuthenticated}
	}
	return w.store.GetByRFPAndUser(rfpID, actor.UserID)
}
