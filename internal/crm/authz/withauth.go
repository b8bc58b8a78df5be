package authz

import (
	"net/http"
	"strings"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/slogx"
)

// Options declares per-route authorization requirements for API handlers.
type Options struct {
	// RequiredPermissions unlocks the route when the caller holds any one.
	RequiredPermissions []domain.Permission

	// RequireOrganization rejects with 400 when no organization context is
	// present.
	RequireOrganization bool

	// AdminOnly rejects with 403 unless the caller is an admin or owner.
	AdminOnly bool
}

// WithAuth wraps an API handler with the same checks as the page middleware,
// but every rejection is a structured JSON error: API clients cannot follow
// redirects meaningfully.
func (a *Authorizer) WithAuth(next http.HandlerFunc, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := a.Sessions.ResolveUser(r)
		if !ok {
			httpx.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		organizationID := OrganizationIDFromAPIRequest(r)
		if opts.RequireOrganization && organizationID == "" {
			httpx.WriteJSONError(w, http.StatusBadRequest, "Organization required")
			return
		}

		ctx := r.Context()

		if opts.AdminOnly && organizationID != "" {
			role, err := a.Permissions.GetUserRole(ctx, userID, organizationID)
			if err != nil {
				slogx.FromContext(ctx).Warn("role lookup failed", "error", err, "user_id", userID)
				role = domain.DefaultRole
			}
			if !domain.IsAdminRole(strings.ToLower(role)) {
				httpx.WriteJSONError(w, http.StatusForbidden, "Admin access required")
				return
			}
		}

		if len(opts.RequiredPermissions) > 0 && organizationID != "" {
			if !a.holdsAny(ctx, userID, organizationID, opts.RequiredPermissions) {
				httpx.WriteJSONError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
		}

		ctx = httpx.WithIdentity(ctx, userID, organizationID)
		ctx = slogx.WithUser(ctx, userID, organizationID)
		next(w, r.WithContext(ctx))
	}
}
