package store

import (
	"context"
	"errors"

	"github.com/agentictinkering/brokerd/internal/crm/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite) implement
// this. Sub-repositories keep concerns tidy and stop callers from accidentally
// nesting transactions.
type Store interface {
	Memberships() Memberships
	OrganizationRoles() OrganizationRoles

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error, the transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Memberships interface {
	// GetActiveMembership returns the active membership of a user in an
	// organization, or ErrNotFound.
	GetActiveMembership(ctx context.Context, userID, organizationID string) (domain.Membership, error)

	// CreateMembership inserts a new membership (id is provided by app via ULID).
	CreateMembership(ctx context.Context, m domain.Membership) error

	// UpdateMembershipRole sets the built-in role and clears any custom role
	// reference, bumping updated_at.
	UpdateMembershipRole(ctx context.Context, membershipID, role string) error

	// AssignCustomRole points the membership at a custom organization role.
	AssignCustomRole(ctx context.Context, membershipID, roleID string) error

	// SetMembershipStatus transitions the membership status.
	SetMembershipStatus(ctx context.Context, membershipID, status string) error

	// ListByOrganization returns all memberships of an organization,
	// whatever their status.
	ListByOrganization(ctx context.Context, organizationID string) ([]domain.Membership, error)
}

type OrganizationRoles interface {
	GetRoleByID(ctx context.Context, id string) (domain.OrganizationRole, error)

	GetRoleByName(ctx context.Context, organizationID, name string) (domain.OrganizationRole, error)

	CreateRole(ctx context.Context, role domain.OrganizationRole) error

	// UpdateRolePermissions replaces the permission list and bumps updated_at.
	UpdateRolePermissions(ctx context.Context, roleID string, permissions []domain.Permission) error

	DeleteRole(ctx context.Context, roleID string) error

	ListByOrganization(ctx context.Context, organizationID string) ([]domain.OrganizationRole, error)
}
