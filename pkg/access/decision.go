// Package access implements the access decision engine: given an actor
// and a target document or RFP it evaluates an ordered rule list and
// returns an allow/deny decision with a machine-readable reason. The
// engine only reads; every decision is reproducible from the records it
// was handed.
package access

import (
	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

// Deny reason codes.
const (
	ReasonRFPNotPublished   = "rfp_not_published"
	ReasonNoQualifyingNDA   = "no_qualifying_nda"
	ReasonRFPAccessPending  = "rfp_access_pending"
	ReasonRFPAccessRejected = "rfp_access_rejected"
	ReasonRFPAccessRequired = "rfp_access_required"
)

// RequestStatusNone marks the absence of an access request in a denial.
const RequestStatusNone = "none"

// Decision is the outcome of an access check. Denials are values, not
// errors; reaching a deny rule is a normal result.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	// RequestStatus surfaces the actor's access request standing on RFP
	// denials so the caller can prompt the correct next action.
	RequestStatus string `json:"requestStatus,omitempty"`
}

// Allow is the positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny is a negative decision with a reason code.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// DecideDocument evaluates document access. First matching rule wins;
// the rules are independent OR-branches, several disjoint legal paths to
// access exist. Total over all inputs: the NDA and request arguments may
// be nil, absence of a record makes the qualifying predicate false.
func DecideDocument(actor auth.Actor, doc *rfp.DocumentRecord, record *rfp.RFPRecord, individual *nda.IndividualNDARecord, company *nda.CompanyNDARecord, request *accessreq.AccessRequestRecord) Decision {
	if actor.IsAdmin() {
		return Allow()
	}
	if record.Status == rfp.StatusDraft && actor.UserID != record.ClientID {
		return Deny(ReasonRFPNotPublished)
	}
	if !doc.RequiresNDA && record.Visibility == rfp.VisibilityPublic && record.Status != rfp.StatusDraft {
		// The one path open to anonymous callers.
		return Allow()
	}
	if !doc.RequiresNDA && DecideRFP(actor, record, request).Allowed {
		return Allow()
	}
	// A signed, not yet countersigned individual NDA already grants
	// access; approval is a formality for display purposes.
	if individual != nil && (individual.Status == nda.StatusSigned || individual.Status == nda.StatusApproved) {
		return Allow()
	}
	if company != nil && company.Status == nda.StatusApproved {
		return Allow()
	}
	return Deny(ReasonNoQualifyingNDA)
}

// DecideRFP evaluates RFP metadata visibility. Document content is gated
// by DecideDocument, not this function. A draft RFP is visible only to
// its owning client and admins; public visibility does not apply until
// the RFP leaves draft.
func DecideRFP(actor auth.Actor, record *rfp.RFPRecord, request *accessreq.AccessRequestRecord) Decision {
	if record.Status == rfp.StatusDraft && !actor.IsAdmin() && actor.UserID != record.ClientID {
		return Deny(ReasonRFPNotPublished)
	}
	if record.Visibility == rfp.VisibilityPublic {
		return Allow()
	}
	if actor.IsAdmin() {
		return Allow()
	}
	if actor.Role == auth.RoleClientReviewer && request != nil && request.Status == accessreq.StatusApproved {
		return Allow()
	}

	d := Deny(ReasonRFPAccessRequired)
	d.RequestStatus = RequestStatusNone
	if request != nil {
		d.RequestStatus = string(request.Status)
		switch request.Status {
		case accessreq.StatusPending:
			d.Reason = ReasonRFPAccessPending
		case accessreq.StatusRejected:
			d.Reason = ReasonRFPAccessRejected
		}
	}
	return d
}
