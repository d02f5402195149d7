// Package auth provides the actor model for the procurement portal.
// Every decision and lifecycle call takes an explicit Actor; there is no
// ambient "current user" context beyond the HTTP identity middleware that
// builds the Actor from trusted proxy headers.
package auth

// Role is a portal-wide user role.
type Role string

const (
	// RoleAdmin may see everything and drive every workflow.
	RoleAdmin Role = "admin"
	// RoleClientReviewer reviews NDAs and may be granted confidential
	// RFP access through an approved access request.
	RoleClientReviewer Role = "client_reviewer"
	// RoleBidder is the default role for bidding-company users.
	RoleBidder Role = "bidder"
)

// CompanyRole is a user's role within their own company.
type CompanyRole string

const (
	CompanyRoleAdmin  CompanyRole = "admin"
	CompanyRoleMember CompanyRole = "member"
)

// Actor identifies the caller of a decision or lifecycle operation.
// The zero value is the anonymous actor.
type Actor struct {
	UserID      string      `json:"userId,omitempty"`
	Role        Role        `json:"role,omitempty"`
	CompanyID   string      `json:"companyId,omitempty"`
	CompanyRole CompanyRole `json:"companyRole,omitempty"`
}

// Anonymous is the unauthenticated actor.
var Anonymous = Actor{}

// IsAnonymous reports whether the actor is unauthenticated.
func (a Actor) IsAnonymous() bool { return a.UserID == "" }

// IsAdmin reports whether the actor holds the portal admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsReviewer reports whether the actor may countersign or reject NDAs.
func (a Actor) IsReviewer() bool {
	return a.Role == RoleAdmin || a.Role == RoleClientReviewer
}

// IsCompanyAdmin reports whether the actor may sign NDAs on behalf of
// their company.
func (a Actor) IsCompanyAdmin() bool {
	return a.CompanyID != "" && a.CompanyRole == CompanyRoleAdmin
}

// DeniedError is a typed authorization denial with a machine-readable
// reason code. It is expected, frequent, and always recoverable by the
// caller; handlers map it to 403, never to an internal error.
type DeniedError struct {
	Reason string `json:"reason"`
}

func (e *DeniedError) Error() string {
	return "authorization denied: " + e.Reason
}

// Denial reason codes shared across lifecycle operations.
const (
	ReasonNotCompanyAdmin  = "not_company_admin"
	ReasonNotReviewer      = "not_reviewer"
	ReasonNotAdmin         = "not_admin"
	ReasonNotAuthenticated = "not_authenticated"
)
