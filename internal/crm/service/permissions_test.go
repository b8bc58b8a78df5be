package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
	"github.com/agentictinkering/brokerd/internal/crm/store/drivers/sqlite"
	"github.com/agentictinkering/brokerd/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newPermissionsService(t *testing.T) (*PermissionsService, *sqlite.Store) {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	return &PermissionsService{Store: s}, s
}

func addMember(t *testing.T, s *sqlite.Store, userID, orgID, role string) domain.Membership {
	t.Helper()

	m := domain.Membership{
		ID:             idx.New().String(),
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Status:         domain.MembershipActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, s.Memberships().CreateMembership(context.Background(), m))
	return m
}

func TestGetUserRoleDefaultsToUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPermissionsService(t)

	role, err := svc.GetUserRole(ctx, "stranger", "org-1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, role)
}

func TestUserHasPermissionFromBuiltInRole(t *testing.T) {
	ctx := context.Background()
	svc, s := newPermissionsService(t)
	addMember(t, s, "agent-1", "org-1", domain.RoleAgent)

	ok, err := svc.UserHasPermission(ctx, "agent-1", "org-1", domain.PermLeadsEdit)
	require.NoError(t, err)
	require.True(t, ok)

	// Agents cannot approve quotes
	ok, err = svc.UserHasPermission(ctx, "agent-1", "org-1", domain.PermQuotesApprove)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCustomRoleOverridesBuiltInDefaults(t *testing.T) {
	ctx := context.Background()
	svc, s := newPermissionsService(t)
	m := addMember(t, s, "reviewer-1", "org-1", domain.RoleAgent)

	role := domain.OrganizationRole{
		ID:             idx.New().String(),
		OrganizationID: "org-1",
		Name:           "quote-approver",
		Permissions:    []domain.Permission{domain.PermQuotesView, domain.PermQuotesApprove},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, s.OrganizationRoles().CreateRole(ctx, role))
	require.NoError(t, s.Memberships().AssignCustomRole(ctx, m.ID, role.ID))

	// Granted by the custom role even though agents lack it by default
	ok, err := svc.UserHasPermission(ctx, "reviewer-1", "org-1", domain.PermQuotesApprove)
	require.NoError(t, err)
	require.True(t, ok)

	// The custom role replaces the defaults entirely
	ok, err = svc.UserHasPermission(ctx, "reviewer-1", "org-1", domain.PermLeadsEdit)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUserHasAnyPermissionShortCircuits(t *testing.T) {
	ctx := context.Background()
	svc, s := newPermissionsService(t)
	addMember(t, s, "viewer-1", "org-1", domain.RoleUser)

	ok, err := svc.UserHasAnyPermission(ctx, "viewer-1", "org-1", []domain.Permission{
		domain.PermLeadsView, // held: first check wins
		domain.PermLeadsDelete,
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.UserHasAnyPermission(ctx, "viewer-1", "org-1", []domain.Permission{
		domain.PermLeadsDelete,
		domain.PermSystemAdmin,
	})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUserHasAllPermissions(t *testing.T) {
	ctx := context.Background()
	svc, s := newPermissionsService(t)
	addMember(t, s, "manager-1", "org-1", domain.RoleManager)

	ok, err := svc.UserHasAllPermissions(ctx, "manager-1", "org-1", []domain.Permission{
		domain.PermLeadsView, domain.PermReportsExport,
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.UserHasAllPermissions(ctx, "manager-1", "org-1", []domain.Permission{
		domain.PermLeadsView, domain.PermOrganizationBilling,
	})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsAdminOrOwner(t *testing.T) {
	ctx := context.Background()
	svc, s := newPermissionsService(t)
	addMember(t, s, "owner-1", "org-1", domain.RoleOwner)
	addMember(t, s, "admin-1", "org-1", domain.RoleAdmin)
	addMember(t, s, "agent-1", "org-1", domain.RoleAgent)

	for _, userID := range []string{"owner-1", "admin-1"} {
		ok, err := svc.IsAdminOrOwner(ctx, userID, "org-1")
		require.NoError(t, err)
		require.True(t, ok, userID)
	}

	ok, err := svc.IsAdminOrOwner(ctx, "agent-1", "org-1")
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown users default to the base role
	ok, err = svc.IsAdminOrOwner(ctx, "stranger", "org-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeactivatedMembershipLosesPermissions(t *testing.T) {
	ctx := context.Background()
	svc, s := newPermissionsService(t)
	m := addMember(t, s, "leaver-1", "org-1", domain.RoleAdmin)

	require.NoError(t, s.Memberships().SetMembershipStatus(ctx, m.ID, domain.MembershipDeactivated))

	perms, err := svc.GetUserPermissions(ctx, "leaver-1", "org-1")
	require.NoError(t, err)
	require.Empty(t, perms)
}
