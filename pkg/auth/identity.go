package auth

import (
	"context"
	"net/http"
	"strings"
)

// actorCtxKey is an unexported type used as the context key for Actor.
type actorCtxKey struct{}

// WithActor returns a new context with the given Actor attached.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// ActorFromContext retrieves the Actor from the context.
// Returns the anonymous actor if none is set.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorCtxKey{}).(Actor); ok {
		return a
	}
	return Anonymous
}

// IdentityMiddleware returns HTTP middleware that builds an Actor from
// X-Remote-User, X-Remote-Role, X-Remote-Company and X-Remote-Company-Role
// headers set by a trusted reverse proxy, and stores it in the request
// context. A missing X-Remote-User yields the anonymous actor. An
// authenticated user with no X-Remote-Role defaults to the bidder role.
func IdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := strings.TrimSpace(r.Header.Get("X-Remote-User"))
			if user == "" {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), Anonymous)))
				return
			}

			role := Role(strings.TrimSpace(r.Header.Get("X-Remote-Role")))
			switch role {
			case RoleAdmin, RoleClientReviewer, RoleBidder:
			default:
				role = RoleBidder
			}

			companyRole := CompanyRole(strings.TrimSpace(r.Header.Get("X-Remote-Company-Role")))
			switch companyRole {
			case CompanyRoleAdmin, CompanyRoleMember:
			default:
				companyRole = CompanyRoleMember
			}

			a := Actor{
				UserID:      user,
				Role:        role,
				CompanyID:   strings.TrimSpace(r.Header.Get("X-Remote-Company")),
				CompanyRole: companyRole,
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}
