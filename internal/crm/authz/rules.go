package authz

import (
	"strings"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
)

// Routes reachable without a session. The root path matches exactly, all
// others by prefix.
var publicRoutes = []string{
	"/",
	"/auth/login",
	"/auth/signup",
	"/auth/reset-password",
	"/auth/callback",
	"/api/auth/callback",
	"/api/health",
	"/livez",
	"/readyz",
	"/swagger",
}

// Routes that require a session but no organization context. The telephony
// auth endpoint is called server-side with only the forwarded cookie header,
// so organization gating there would break the refresh round trip.
var sessionOnlyRoutes = []string{
	"/api/ringcentral/auth",
}

// routeRule pairs a path prefix with the permissions that unlock it. Holding
// any one of them suffices. First matching prefix wins, so order matters.
type routeRule struct {
	prefix      string
	permissions []domain.Permission
}

var protectedRoutes = []routeRule{
	{"/dashboard/leads", []domain.Permission{domain.PermLeadsView}},
	{"/dashboard/clients", []domain.Permission{domain.PermClientsView}},
	{"/dashboard/quotes", []domain.Permission{domain.PermQuotesView}},
	{"/dashboard/reports", []domain.Permission{domain.PermReportsView}},
	{"/dashboard/users", []domain.Permission{domain.PermUsersView}},
	{"/dashboard/settings", []domain.Permission{domain.PermOrganizationView}},
	{"/api/leads", []domain.Permission{domain.PermLeadsView}},
	{"/api/clients", []domain.Permission{domain.PermClientsView}},
	{"/api/quotes", []domain.Permission{domain.PermQuotesView}},
	{"/api/users", []domain.Permission{domain.PermUsersView}},
}

// Routes restricted to organization admins and owners.
var adminRoutes = []string{
	"/dashboard/admin",
	"/dashboard/organization",
	"/api/admin",
	"/api/organization",
}

// IsPublicRoute reports whether a path bypasses authentication entirely.
func IsPublicRoute(pathname string) bool {
	for _, route := range publicRoutes {
		if route == "/" {
			if pathname == "/" {
				return true
			}
			continue
		}
		if strings.HasPrefix(pathname, route) {
			return true
		}
	}
	return false
}

// IsSessionOnlyRoute reports whether a path skips the organization and
// permission gates once a session is resolved.
func IsSessionOnlyRoute(pathname string) bool {
	for _, route := range sessionOnlyRoutes {
		if strings.HasPrefix(pathname, route) {
			return true
		}
	}
	return false
}

// IsAdminRoute reports whether a path requires an admin or owner role.
func IsAdminRoute(pathname string) bool {
	for _, route := range adminRoutes {
		if strings.HasPrefix(pathname, route) {
			return true
		}
	}
	return false
}

// RequiredPermissions returns the permission set of the first matching route
// rule, or nil when the path carries no permission requirement.
func RequiredPermissions(pathname string) []domain.Permission {
	for _, rule := range protectedRoutes {
		if strings.HasPrefix(pathname, rule.prefix) {
			return rule.permissions
		}
	}
	return nil
}
