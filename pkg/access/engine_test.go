package access

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

type fixture struct {
	db        *gorm.DB
	engine    *Engine
	rfps      *rfp.Store
	ndas      *nda.Store
	companies *nda.CompanyStore
	requests  *accessreq.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&rfp.RFPRecord{}, &rfp.DocumentRecord{},
		&nda.IndividualNDARecord{}, &nda.CompanyNDARecord{}, &nda.AuditTrailEntry{},
		&accessreq.AccessRequestRecord{},
	))

	f := &fixture{
		db:        db,
		rfps:      rfp.NewStore(db),
		ndas:      nda.NewStore(db),
		companies: nda.NewCompanyStore(db),
		requests:  accessreq.NewStore(db),
	}
	f.engine = NewEngine(f.rfps, f.ndas, f.companies, f.requests)
	return f
}

func (f *fixture) addRFP(t *testing.T, id string, visibility rfp.Visibility, status rfp.Status) {
	t.Helper()
	require.NoError(t, f.rfps.Create(&rfp.RFPRecord{
		ID:         id,
		Title:      "RFP " + id,
		Visibility: visibility,
		Status:     status,
		ClientID:   "client-1",
	}))
}

func (f *fixture) addDocument(t *testing.T, id, rfpID string, requiresNDA bool) {
	t.Helper()
	require.NoError(t, f.rfps.CreateDocument(&rfp.DocumentRecord{
		ID:          id,
		RFPID:       rfpID,
		Name:        "doc-" + id + ".pdf",
		StorageKey:  "rfps/" + rfpID + "/" + id,
		RequiresNDA: requiresNDA,
	}))
}

var (
	adminActor    = auth.Actor{UserID: "admin-1", Role: auth.RoleAdmin}
	bidderActor   = auth.Actor{UserID: "user-1", Role: auth.RoleBidder, CompanyID: "company-1", CompanyRole: auth.CompanyRoleMember}
	reviewerActor = auth.Actor{UserID: "reviewer-1", Role: auth.RoleClientReviewer}
)

func TestPublicDocumentOpenToEveryone(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusActive)
	f.addDocument(t, "doc-1", "rfp-1", false)

	for name, actor := range map[string]auth.Actor{
		"anonymous": auth.Anonymous,
		"bidder":    bidderActor,
		"reviewer":  reviewerActor,
		"admin":     adminActor,
	} {
		decision, err := f.engine.CanAccessDocument(actor, "doc-1")
		require.NoError(t, err, name)
		assert.True(t, decision.Allowed, name)
	}
}

func TestDraftRFPHiddenFromNonOwners(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusDraft)
	f.addDocument(t, "doc-1", "rfp-1", false)

	decision, err := f.engine.CanAccessDocument(bidderActor, "doc-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRFPNotPublished, decision.Reason)

	// The owning client and admins still get through.
	owner := auth.Actor{UserID: "client-1", Role: auth.RoleClientReviewer}
	decision, err = f.engine.CanAccessDocument(owner, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = f.engine.CanAccessDocument(adminActor, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestDraftRFPMetadataHiddenFromNonOwners(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusDraft)

	// Public visibility does not apply while the RFP is still a draft.
	for name, actor := range map[string]auth.Actor{
		"anonymous": auth.Anonymous,
		"bidder":    bidderActor,
		"reviewer":  reviewerActor,
	} {
		decision, err := f.engine.CanAccessRFP(actor, "rfp-1")
		require.NoError(t, err, name)
		assert.False(t, decision.Allowed, name)
		assert.Equal(t, ReasonRFPNotPublished, decision.Reason, name)
	}

	owner := auth.Actor{UserID: "client-1", Role: auth.RoleClientReviewer}
	decision, err := f.engine.CanAccessRFP(owner, "rfp-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = f.engine.CanAccessRFP(adminActor, "rfp-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestDecideRFPDraftRulePrecedesPublicVisibility(t *testing.T) {
	record := &rfp.RFPRecord{ID: "rfp-1", Visibility: rfp.VisibilityPublic, Status: rfp.StatusDraft, ClientID: "client-1"}

	decision := DecideRFP(auth.Anonymous, record, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRFPNotPublished, decision.Reason)

	decision = DecideRFP(bidderActor, record, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRFPNotPublished, decision.Reason)

	owner := auth.Actor{UserID: "client-1", Role: auth.RoleClientReviewer}
	assert.True(t, DecideRFP(owner, record, nil).Allowed)
	assert.True(t, DecideRFP(adminActor, record, nil).Allowed)
}

func TestProtectedDocumentDeniedWithoutNDA(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusActive)
	f.addDocument(t, "doc-1", "rfp-1", true)

	for name, actor := range map[string]auth.Actor{
		"anonymous": auth.Anonymous,
		"bidder":    bidderActor,
		"reviewer":  reviewerActor,
	} {
		decision, err := f.engine.CanAccessDocument(actor, "doc-1")
		require.NoError(t, err, name)
		assert.False(t, decision.Allowed, name)
		assert.Equal(t, ReasonNoQualifyingNDA, decision.Reason, name)
	}

	decision, err := f.engine.CanAccessDocument(adminActor, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestSignedNDAGrantsAccessBeforeApproval(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusActive)
	f.addDocument(t, "doc-1", "rfp-1", true)

	_, err := f.ndas.Sign("rfp-1", bidderActor.UserID, nda.Signature{FullName: "Dana Reyes"})
	require.NoError(t, err)

	decision, err := f.engine.CanAccessDocument(bidderActor, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRejectedNDADoesNotGrantAccess(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusActive)
	f.addDocument(t, "doc-1", "rfp-1", true)

	rec, err := f.ndas.Sign("rfp-1", bidderActor.UserID, nda.Signature{FullName: "Dana Reyes"})
	require.NoError(t, err)
	_, err = f.ndas.Reject(rec.ID, "reviewer-1", "wrong template")
	require.NoError(t, err)

	decision, err := f.engine.CanAccessDocument(bidderActor, "doc-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoQualifyingNDA, decision.Reason)
}

func TestCompanyNDAInheritance(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusActive)
	f.addDocument(t, "doc-1", "rfp-1", true)

	rec, err := f.companies.Sign("rfp-1", "company-1", "user-2", nda.Signature{FullName: "Lee Park"})
	require.NoError(t, err)

	// Signed but not yet countersigned does not qualify for company NDAs.
	decision, err := f.engine.CanAccessDocument(bidderActor, "doc-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	_, err = f.companies.Countersign(rec.ID, "reviewer-1", nda.Countersignature{Name: "Sam Okafor"})
	require.NoError(t, err)

	decision, err = f.engine.CanAccessDocument(bidderActor, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// A member who joined the company after approval inherits access.
	newHire := auth.Actor{UserID: "user-99", Role: auth.RoleBidder, CompanyID: "company-1", CompanyRole: auth.CompanyRoleMember}
	decision, err = f.engine.CanAccessDocument(newHire, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestConfidentialRFPAccessRequestScenario(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityConfidential, rfp.StatusActive)

	// No request on file.
	decision, err := f.engine.CanAccessRFP(reviewerActor, "rfp-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRFPAccessRequired, decision.Reason)
	assert.Equal(t, RequestStatusNone, decision.RequestStatus)

	// Pending request.
	req, err := f.requests.Create("rfp-1", reviewerActor.UserID, "")
	require.NoError(t, err)

	decision, err = f.engine.CanAccessRFP(reviewerActor, "rfp-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRFPAccessPending, decision.Reason)
	assert.Equal(t, string(accessreq.StatusPending), decision.RequestStatus)

	// Approved request flips the decision.
	_, err = f.requests.Decide(req.ID, accessreq.StatusApproved, "admin-1", "")
	require.NoError(t, err)

	decision, err = f.engine.CanAccessRFP(reviewerActor, "rfp-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRejectedAccessRequestSurfaced(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityConfidential, rfp.StatusActive)

	req, err := f.requests.Create("rfp-1", reviewerActor.UserID, "")
	require.NoError(t, err)
	_, err = f.requests.Decide(req.ID, accessreq.StatusRejected, "admin-1", "no engagement")
	require.NoError(t, err)

	decision, err := f.engine.CanAccessRFP(reviewerActor, "rfp-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRFPAccessRejected, decision.Reason)
	assert.Equal(t, string(accessreq.StatusRejected), decision.RequestStatus)
}

func TestApprovedRequestRequiresReviewerRole(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityConfidential, rfp.StatusActive)

	req, err := f.requests.Create("rfp-1", bidderActor.UserID, "")
	require.NoError(t, err)
	_, err = f.requests.Decide(req.ID, accessreq.StatusApproved, "admin-1", "")
	require.NoError(t, err)

	decision, err := f.engine.CanAccessRFP(bidderActor, "rfp-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestPlainDocumentOnConfidentialRFPFollowsRFPAccess(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityConfidential, rfp.StatusActive)
	f.addDocument(t, "doc-1", "rfp-1", false)

	decision, err := f.engine.CanAccessDocument(reviewerActor, "doc-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	req, err := f.requests.Create("rfp-1", reviewerActor.UserID, "")
	require.NoError(t, err)
	_, err = f.requests.Decide(req.ID, accessreq.StatusApproved, "admin-1", "")
	require.NoError(t, err)

	decision, err = f.engine.CanAccessDocument(reviewerActor, "doc-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestUnknownTargetsAreNotFound(t *testing.T) {
	f := newFixture(t)
	f.addRFP(t, "rfp-1", rfp.VisibilityPublic, rfp.StatusActive)

	_, err := f.engine.CanAccessDocument(bidderActor, "doc-404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.CanAccessRFP(bidderActor, "rfp-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecideDocumentIsTotalOverNilRecords(t *testing.T) {
	record := &rfp.RFPRecord{ID: "rfp-1", Visibility: rfp.VisibilityConfidential, Status: rfp.StatusActive, ClientID: "client-1"}
	doc := &rfp.DocumentRecord{ID: "doc-1", RFPID: "rfp-1", RequiresNDA: true}

	decision := DecideDocument(auth.Anonymous, doc, record, nil, nil, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoQualifyingNDA, decision.Reason)
}
