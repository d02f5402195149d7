package nda

import (
	"fmt"
	"log/slog"

	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/notify"
)

// RFPChecker reports whether an RFP exists. Satisfied by *rfp.Store.
type RFPChecker interface {
	RFPExists(id string) (bool, error)
}

// Manager drives the NDA lifecycle: signing, countersignature, rejection
// and the status projection. It enforces role checks and input validation
// before touching the stores, and dispatches notifications after the
// transition has committed.
type Manager struct {
	individuals *Store
	companies   *CompanyStore
	audit       *AuditStore
	rfps        RFPChecker
	notifier    notify.Dispatcher
	logger      *slog.Logger
}

// NewManager wires the lifecycle manager. A nil notifier disables
// notifications; a nil logger falls back to slog.Default.
func NewManager(individuals *Store, companies *CompanyStore, audit *AuditStore, rfps RFPChecker, notifier notify.Dispatcher, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notify.NopDispatcher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		individuals: individuals,
		companies:   companies,
		audit:       audit,
		rfps:        rfps,
		notifier:    notifier,
		logger:      logger,
	}
}

// SignIndividual records the actor's personal signature for the RFP.
func (m *Manager) SignIndividual(actor auth.Actor, rfpID string, sig Signature) (*IndividualNDARecord, error) {
	if actor.IsAnonymous() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAuthenticated}
	}
	if sig.FullName == "" {
		return nil, &ValidationError{Field: "fullName", Message: "signer full name is required"}
	}
	if err := m.checkRFP(rfpID); err != nil {
		return nil, err
	}

	rec, err := m.individuals.Sign(rfpID, actor.UserID, sig)
	if err != nil {
		return nil, err
	}
	m.logger.Info("individual nda signed",
		"ndaID", rec.ID, "rfpID", rfpID, "userID", actor.UserID)
	return rec, nil
}

// SignCompany records a company-wide signature. Only company
// administrators may bind their company.
func (m *Manager) SignCompany(actor auth.Actor, rfpID string, sig Signature) (*CompanyNDARecord, error) {
	if actor.IsAnonymous() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAuthenticated}
	}
	if !actor.IsCompanyAdmin() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotCompanyAdmin}
	}
	if sig.FullName == "" {
		return nil, &ValidationError{Field: "fullName", Message: "signer full name is required"}
	}
	if err := m.checkRFP(rfpID); err != nil {
		return nil, err
	}

	rec, err := m.companies.Sign(rfpID, actor.CompanyID, actor.UserID, sig)
	if err != nil {
		return nil, err
	}
	m.logger.Info("company nda signed",
		"ndaID", rec.ID, "rfpID", rfpID, "companyID", actor.CompanyID, "signedBy", actor.UserID)
	return rec, nil
}

func (m *Manager) checkRFP(rfpID string) error {
	exists, err := m.rfps.RFPExists(rfpID)
	if err != nil {
		return fmt.Errorf("check rfp: %w", err)
	}
	if !exists {
		return ErrRFPNotFound
	}
	return nil
}

// Countersign approves a signed NDA of either kind. Reviewer-only. The
// signer is notified after the transition commits.
func (m *Manager) Countersign(actor auth.Actor, kind Kind, id string, cs Countersignature) (Record, error) {
	if !actor.IsReviewer() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotReviewer}
	}
	if cs.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "countersigner name is required"}
	}

	switch kind {
	case KindIndividual:
		rec, err := m.individuals.Countersign(id, actor.UserID, cs)
		if err != nil {
			return nil, err
		}
		m.notifySigner(rec.UserID, rec.ID, notify.TypeNDAApproved,
			"NDA approved", "Your NDA has been countersigned and approved.")
		m.logger.Info("nda countersigned", "ndaID", id, "kind", kind, "actor", actor.UserID)
		return rec, nil

	case KindCompany:
		rec, err := m.companies.Countersign(id, actor.UserID, cs)
		if err != nil {
			return nil, err
		}
		m.notifySigner(rec.SignedByUserID, rec.ID, notify.TypeNDAApproved,
			"Company NDA approved", "Your company's NDA has been countersigned and approved.")
		m.logger.Info("nda countersigned", "ndaID", id, "kind", kind, "actor", actor.UserID)
		return rec, nil

	default:
		return nil, &ValidationError{Field: "kind", Message: "unknown nda kind"}
	}
}

// Reject declines a signed NDA of either kind. Reviewer-only. A reason is
// required; no state changes when it is missing.
func (m *Manager) Reject(actor auth.Actor, kind Kind, id, reason string) (Record, error) {
	if !actor.IsReviewer() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotReviewer}
	}
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "rejection reason is required"}
	}

	switch kind {
	case KindIndividual:
		rec, err := m.individuals.Reject(id, actor.UserID, reason)
		if err != nil {
			return nil, err
		}
		m.notifySigner(rec.UserID, rec.ID, notify.TypeNDARejected,
			"NDA rejected", "Your NDA was rejected: "+reason)
		m.logger.Info("nda rejected", "ndaID", id, "kind", kind, "actor", actor.UserID)
		return rec, nil

	case KindCompany:
		rec, err := m.companies.Reject(id, actor.UserID, reason)
		if err != nil {
			return nil, err
		}
		m.notifySigner(rec.SignedByUserID, rec.ID, notify.TypeNDARejected,
			"Company NDA rejected", "Your company's NDA was rejected: "+reason)
		m.logger.Info("nda rejected", "ndaID", id, "kind", kind, "actor", actor.UserID)
		return rec, nil

	default:
		return nil, &ValidationError{Field: "kind", Message: "unknown nda kind"}
	}
}

func (m *Manager) notifySigner(userID, ndaID, notifType, title, message string) {
	if userID == "" {
		return
	}
	err := m.notifier.Dispatch(notify.Notification{
		UserID:      userID,
		Title:       title,
		Message:     message,
		Type:        notifType,
		ReferenceID: ndaID,
	})
	if err != nil {
		// Delivery is best-effort; the state transition already committed.
		m.logger.Error("nda notification dispatch failed", "ndaID", ndaID, "error", err)
	}
}

// PartyStatus describes one side of the actor's NDA standing for an RFP.
type PartyStatus struct {
	Exists                  bool   `json:"exists"`
	ID                      string `json:"id,omitempty"`
	Status                  Status `json:"status,omitempty"`
	SignaturePresent        bool   `json:"signaturePresent"`
	CountersignaturePresent bool   `json:"countersignaturePresent"`
	RejectionReason         string `json:"rejectionReason,omitempty"`
}

// StatusView is the actor-relative NDA status for an RFP: their own
// individual NDA and their company's NDA, either of which may not exist.
type StatusView struct {
	RFPID      string      `json:"rfpId"`
	Individual PartyStatus `json:"individual"`
	Company    PartyStatus `json:"company"`
}

// GetStatus projects the actor's NDA standing for an RFP.
func (m *Manager) GetStatus(actor auth.Actor, rfpID string) (*StatusView, error) {
	if actor.IsAnonymous() {
		return nil, &auth.DeniedError{Reason: auth.ReasonNotAuthenticated}
	}

	view := &StatusView{RFPID: rfpID}

	individual, err := m.individuals.GetByRFPAndUser(rfpID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if individual != nil {
		view.Individual = PartyStatus{
			Exists:                  true,
			ID:                      individual.ID,
			Status:                  individual.Status,
			SignaturePresent:        individual.SignedAt != nil,
			CountersignaturePresent: individual.CountersignedAt != nil,
			RejectionReason:         individual.RejectionReason,
		}
	}

	if actor.CompanyID != "" {
		company, err := m.companies.GetByRFPAndCompany(rfpID, actor.CompanyID)
		if err != nil {
			return nil, err
		}
		if company != nil {
			view.Company = PartyStatus{
				Exists:                  true,
				ID:                      company.ID,
				Status:                  company.Status,
				SignaturePresent:        company.SignedAt != nil,
				CountersignaturePresent: company.CountersignedAt != nil,
				RejectionReason:         company.RejectionReason,
			}
		}
	}

	return view, nil
}

// ListAudit returns the audit trail for an NDA. Reviewer-only.
func (m *Manager) ListAudit(actor auth.Actor, kind Kind, ndaID string, pageSize int, pageToken string) ([]AuditTrailEntry, string, error) {
	if !actor.IsReviewer() {
		return nil, "", &auth.DeniedError{Reason: auth.ReasonNotReviewer}
	}
	switch kind {
	case KindIndividual:
		rec, err := m.individuals.Get(ndaID)
		if err != nil {
			return nil, "", err
		}
		if rec == nil {
			return nil, "", ErrNotFound
		}
	case KindCompany:
		rec, err := m.companies.Get(ndaID)
		if err != nil {
			return nil, "", err
		}
		if rec == nil {
			return nil, "", ErrNotFound
		}
	default:
		return nil, "", &ValidationError{Field: "kind", Message: "unknown nda kind"}
	}
	return m.audit.ListByNDA(kind, ndaID, pageSize, pageToken)
}
