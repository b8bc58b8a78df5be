package authz

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/slogx"
)

// OrgHeader and OrgCookie carry the organization context on inbound requests.
const (
	OrgHeader = "X-Organization-Id"
	OrgCookie = "organization-id"
)

// Redirect targets for the page-navigation rejection outcomes.
const (
	loginPath      = "/auth/login"
	onboardingPath = "/onboarding/organization"
	dashboardPath  = "/dashboard"
)

// SessionResolver yields the authenticated user for a request, if any.
type SessionResolver interface {
	ResolveUser(r *http.Request) (string, bool)
}

// PermissionResolver answers role and permission questions. Lookup errors are
// treated as "not held": authorization fails closed rather than crashing the
// request.
type PermissionResolver interface {
	GetUserRole(ctx context.Context, userID, organizationID string) (string, error)
	UserHasPermission(ctx context.Context, userID, organizationID string, permission domain.Permission) (bool, error)
}

// Authorizer gates every inbound request before it reaches business logic.
// The Middleware method covers page navigation (rejections are redirects);
// WithAuth wraps API handlers (rejections are JSON errors).
type Authorizer struct {
	Sessions    SessionResolver
	Permissions PermissionResolver
}

// Middleware is the page-navigation variant. Every rejection is a terminal
// redirect; allowed requests continue with the resolved identity in context.
func (a *Authorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pathname := r.URL.Path

		// Public routes bypass everything, including the identity lookup.
		if IsPublicRoute(pathname) {
			next.ServeHTTP(w, r)
			return
		}

		userID, ok := a.Sessions.ResolveUser(r)
		if !ok {
			target := loginPath + "?" + url.Values{"redirectTo": {pathname}}.Encode()
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		organizationID := OrganizationIDFromRequest(r)
		ctx := r.Context()

		// Session-only routes get the resolved identity and nothing else; the
		// organization gate must not fire for them (the token refresh round
		// trip carries cookies only).
		if IsSessionOnlyRoute(pathname) {
			ctx = httpx.WithIdentity(ctx, userID, organizationID)
			ctx = slogx.WithUser(ctx, userID, organizationID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if organizationID == "" && !strings.HasPrefix(pathname, "/onboarding") {
			http.Redirect(w, r, onboardingPath, http.StatusFound)
			return
		}

		if IsAdminRoute(pathname) && organizationID != "" {
			role, err := a.Permissions.GetUserRole(ctx, userID, organizationID)
			if err != nil {
				slogx.FromContext(ctx).Warn("role lookup failed", "error", err, "user_id", userID)
				role = domain.DefaultRole
			}
			if !domain.IsAdminRole(strings.ToLower(role)) {
				http.Redirect(w, r, dashboardPath+"?error=unauthorized", http.StatusFound)
				return
			}
		}

		if required := RequiredPermissions(pathname); len(required) > 0 && organizationID != "" {
			if !a.holdsAny(ctx, userID, organizationID, required) {
				http.Redirect(w, r, dashboardPath+"?error=forbidden", http.StatusFound)
				return
			}
		}

		ctx = httpx.WithIdentity(ctx, userID, organizationID)
		ctx = slogx.WithUser(ctx, userID, organizationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// holdsAny short-circuits on the first held permission. Lookup failures count
// as not held.
func (a *Authorizer) holdsAny(ctx context.Context, userID, organizationID string, permissions []domain.Permission) bool {
	for _, permission := range permissions {
		ok, err := a.Permissions.UserHasPermission(ctx, userID, organizationID, permission)
		if err != nil {
			slogx.FromContext(ctx).Warn("permission lookup failed",
				"error", err, "user_id", userID, "permission", string(permission))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// OrganizationIDFromRequest resolves the organization context from the header
// set by upstream infrastructure or the selection cookie, in that order. Page
// navigation never trusts a query parameter for this.
func OrganizationIDFromRequest(r *http.Request) string {
	if id := r.Header.Get(OrgHeader); id != "" {
		return id
	}
	if cookie, err := r.Cookie(OrgCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// OrganizationIDFromAPIRequest additionally accepts an explicit organizationId
// query parameter. Only API handlers use this variant.
func OrganizationIDFromAPIRequest(r *http.Request) string {
	if id := OrganizationIDFromRequest(r); id != "" {
		return id
	}
	return r.URL.Query().Get("organizationId")
}
