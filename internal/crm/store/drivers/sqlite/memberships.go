package sqlite

import (
	"context"
	"database/sql"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
)

type membershipsRepo struct {
	q querier
}

func (r *membershipsRepo) GetActiveMembership(ctx context.Context, userID, organizationID string) (domain.Membership, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, organization_id, role, role_id, status, created_at, updated_at
		FROM memberships
		WHERE user_id = ? AND organization_id = ? AND status = ?`,
		userID, organizationID, domain.MembershipActive,
	)
	return scanMembership(row)
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, organization_id, role, role_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.OrganizationID, m.Role, mapOptionalString(m.RoleID), m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *membershipsRepo) UpdateMembershipRole(ctx context.Context, membershipID, role string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE memberships
		SET role = ?, role_id = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		role, membershipID,
	)
	return err
}

func (r *membershipsRepo) AssignCustomRole(ctx context.Context, membershipID, roleID string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE memberships
		SET role_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		roleID, membershipID,
	)
	return err
}

func (r *membershipsRepo) SetMembershipStatus(ctx context.Context, membershipID, status string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE memberships
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		status, membershipID,
	)
	return err
}

func (r *membershipsRepo) ListByOrganization(ctx context.Context, organizationID string) ([]domain.Membership, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, organization_id, role, role_id, status, created_at, updated_at
		FROM memberships
		WHERE organization_id = ?
		ORDER BY created_at`,
		organizationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (domain.Membership, error) {
	var m domain.Membership
	var roleID sql.NullString
	err := row.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &roleID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.RoleID = mapNullStringPtr(roleID)
	return m, nil
}
