package sqlite

import (
	"context"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
)

type organizationRolesRepo struct {
	q querier
}

func (r *organizationRolesRepo) GetRoleByID(ctx context.Context, id string) (domain.OrganizationRole, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, organization_id, name, permissions, created_at, updated_at
		FROM organization_roles
		WHERE id = ?`,
		id,
	)
	return scanOrganizationRole(row)
}

func (r *organizationRolesRepo) GetRoleByName(ctx context.Context, organizationID, name string) (domain.OrganizationRole, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, organization_id, name, permissions, created_at, updated_at
		FROM organization_roles
		WHERE organization_id = ? AND name = ?`,
		organizationID, name,
	)
	return scanOrganizationRole(row)
}

func (r *organizationRolesRepo) CreateRole(ctx context.Context, role domain.OrganizationRole) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO organization_roles (id, organization_id, name, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.OrganizationID, role.Name, joinPermissions(role.Permissions), role.CreatedAt, role.UpdatedAt,
	)
	return err
}

func (r *organizationRolesRepo) UpdateRolePermissions(ctx context.Context, roleID string, permissions []domain.Permission) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE organization_roles
		SET permissions = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		joinPermissions(permissions), roleID,
	)
	return err
}

func (r *organizationRolesRepo) DeleteRole(ctx context.Context, roleID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM organization_roles WHERE id = ?`, roleID)
	return err
}

func (r *organizationRolesRepo) ListByOrganization(ctx context.Context, organizationID string) ([]domain.OrganizationRole, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, organization_id, name, permissions, created_at, updated_at
		FROM organization_roles
		WHERE organization_id = ?
		ORDER BY name`,
		organizationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.OrganizationRole
	for rows.Next() {
		role, err := scanOrganizationRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanOrganizationRole(row rowScanner) (domain.OrganizationRole, error) {
	var role domain.OrganizationRole
	var permissions string
	err := row.Scan(&role.ID, &role.OrganizationID, &role.Name, &permissions, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.OrganizationRole{}, mapNotFound(err)
	}
	role.Permissions = splitPermissions(permissions)
	return role, nil
}
