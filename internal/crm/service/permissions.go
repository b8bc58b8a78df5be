package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
	"github.com/agentictinkering/brokerd/internal/crm/store"
)

// PermissionsService answers role and permission questions for a user within
// an organization. A user with no active membership resolves to the default
// role with no grants beyond it; lookups never fail a request outright.
type PermissionsService struct {
	Store store.Store
}

// GetUserRole returns the user's built-in role name in the organization.
// Custom roles still carry the membership's base role name; a missing
// membership resolves to the default role.
func (s *PermissionsService) GetUserRole(ctx context.Context, userID, organizationID string) (string, error) {
	m, err := s.Store.Memberships().GetActiveMembership(ctx, userID, organizationID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DefaultRole, nil
	}
	if err != nil {
		return domain.DefaultRole, err
	}
	if m.Role == "" {
		return domain.DefaultRole, nil
	}
	return m.Role, nil
}

// GetUserPermissions returns the effective permission set: a custom
// organization role's explicit list when assigned, otherwise the built-in
// role's defaults.
func (s *PermissionsService) GetUserPermissions(ctx context.Context, userID, organizationID string) ([]domain.Permission, error) {
	m, err := s.Store.Memberships().GetActiveMembership(ctx, userID, organizationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if m.RoleID != nil {
		role, err := s.Store.OrganizationRoles().GetRoleByID(ctx, *m.RoleID)
		if err == nil {
			return role.Permissions, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Dangling custom role reference: fall back to the base role.
	}

	role := m.Role
	if role == "" {
		role = domain.DefaultRole
	}
	perms, ok := domain.RolePermissions[role]
	if !ok {
		perms = domain.RolePermissions[domain.DefaultRole]
	}
	return perms, nil
}

// UserHasPermission reports whether the user holds one specific permission in
// the organization.
func (s *PermissionsService) UserHasPermission(ctx context.Context, userID, organizationID string, permission domain.Permission) (bool, error) {
	perms, err := s.GetUserPermissions(ctx, userID, organizationID)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, permission), nil
}

// UserHasAnyPermission short-circuits on the first held permission.
func (s *PermissionsService) UserHasAnyPermission(ctx context.Context, userID, organizationID string, permissions []domain.Permission) (bool, error) {
	for _, permission := range permissions {
		ok, err := s.UserHasPermission(ctx, userID, organizationID, permission)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// UserHasAllPermissions reports whether every listed permission is held.
func (s *PermissionsService) UserHasAllPermissions(ctx context.Context, userID, organizationID string, permissions []domain.Permission) (bool, error) {
	for _, permission := range permissions {
		ok, err := s.UserHasPermission(ctx, userID, organizationID, permission)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// IsAdminOrOwner reports whether the user's role carries organization-admin
// powers.
func (s *PermissionsService) IsAdminOrOwner(ctx context.Context, userID, organizationID string) (bool, error) {
	role, err := s.GetUserRole(ctx, userID, organizationID)
	if err != nil {
		return false, err
	}
	return domain.IsAdminRole(strings.ToLower(role)), nil
}
