package authz

import (
	"testing"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
	"github.com/stretchr/testify/require"
)

func TestIsPublicRoute(t *testing.T) {
	t.Parallel()

	require.True(t, IsPublicRoute("/"))
	require.True(t, IsPublicRoute("/auth/login"))
	require.True(t, IsPublicRoute("/auth/reset-password/confirm"))
	require.True(t, IsPublicRoute("/api/health"))

	require.False(t, IsPublicRoute("/dashboard"))
	require.False(t, IsPublicRoute("/api/leads"))
	require.False(t, IsPublicRoute("/anything"))
}

func TestIsAdminRoute(t *testing.T) {
	t.Parallel()

	require.True(t, IsAdminRoute("/dashboard/admin"))
	require.True(t, IsAdminRoute("/api/organization/settings"))

	require.False(t, IsAdminRoute("/dashboard/leads"))
	require.False(t, IsAdminRoute("/api/users"))
}

func TestIsSessionOnlyRoute(t *testing.T) {
	t.Parallel()

	require.True(t, IsSessionOnlyRoute("/api/ringcentral/auth"))

	require.False(t, IsSessionOnlyRoute("/api/ringcentral/call"))
	require.False(t, IsSessionOnlyRoute("/dashboard"))
}

func TestRequiredPermissions(t *testing.T) {
	t.Parallel()

	require.Equal(t, []domain.Permission{domain.PermLeadsView}, RequiredPermissions("/dashboard/leads"))
	require.Equal(t, []domain.Permission{domain.PermLeadsView}, RequiredPermissions("/dashboard/leads/kanban/col-1"))
	require.Equal(t, []domain.Permission{domain.PermOrganizationView}, RequiredPermissions("/dashboard/settings"))
	require.Equal(t, []domain.Permission{domain.PermUsersView}, RequiredPermissions("/api/users/invite"))

	require.Nil(t, RequiredPermissions("/dashboard"))
	require.Nil(t, RequiredPermissions("/api/ringcentral/call"))
}
