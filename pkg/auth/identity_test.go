package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureActor(t *testing.T, headers map[string]string) Actor {
	t.Helper()

	var got Actor
	handler := IdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestIdentityMiddlewareFullHeaders(t *testing.T) {
	got := captureActor(t, map[string]string{
		"X-Remote-User":         "user-1",
		"X-Remote-Role":         "client_reviewer",
		"X-Remote-Company":      "company-1",
		"X-Remote-Company-Role": "admin",
	})

	assert.Equal(t, Actor{
		UserID:      "user-1",
		Role:        RoleClientReviewer,
		CompanyID:   "company-1",
		CompanyRole: CompanyRoleAdmin,
	}, got)
}

func TestIdentityMiddlewareMissingUserIsAnonymous(t *testing.T) {
	got := captureActor(t, map[string]string{
		"X-Remote-Role": "admin",
	})

	assert.True(t, got.IsAnonymous())
	assert.Equal(t, Anonymous, got)
}

func TestIdentityMiddlewareDefaultsRoleToBidder(t *testing.T) {
	got := captureActor(t, map[string]string{"X-Remote-User": "user-1"})
	assert.Equal(t, RoleBidder, got.Role)

	got = captureActor(t, map[string]string{
		"X-Remote-User": "user-1",
		"X-Remote-Role": "superuser",
	})
	assert.Equal(t, RoleBidder, got.Role)
}

func TestIdentityMiddlewareDefaultsCompanyRoleToMember(t *testing.T) {
	got := captureActor(t, map[string]string{
		"X-Remote-User":         "user-1",
		"X-Remote-Company":      "company-1",
		"X-Remote-Company-Role": "owner",
	})
	assert.Equal(t, CompanyRoleMember, got.CompanyRole)
}

func TestIdentityMiddlewareTrimsWhitespace(t *testing.T) {
	got := captureActor(t, map[string]string{
		"X-Remote-User":    "  user-1  ",
		"X-Remote-Company": " company-1 ",
	})
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "company-1", got.CompanyID)
}

func TestActorFromContextWithoutActor(t *testing.T) {
	got := ActorFromContext(context.Background())
	require.True(t, got.IsAnonymous())
}

func TestActorPredicates(t *testing.T) {
	admin := Actor{UserID: "a", Role: RoleAdmin}
	reviewer := Actor{UserID: "r", Role: RoleClientReviewer}
	bidder := Actor{UserID: "b", Role: RoleBidder, CompanyID: "c-1", CompanyRole: CompanyRoleMember}
	companyAdmin := Actor{UserID: "ca", Role: RoleBidder, CompanyID: "c-1", CompanyRole: CompanyRoleAdmin}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsReviewer())
	assert.True(t, reviewer.IsReviewer())
	assert.False(t, bidder.IsReviewer())

	assert.True(t, companyAdmin.IsCompanyAdmin())
	assert.False(t, bidder.IsCompanyAdmin())

	// A company role without a company grants nothing.
	orphan := Actor{UserID: "o", CompanyRole: CompanyRoleAdmin}
	assert.False(t, orphan.IsCompanyAdmin())
}
