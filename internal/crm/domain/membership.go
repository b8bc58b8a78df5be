package domain

import "time"

// Membership statuses.
const (
	MembershipActive      = "active"
	MembershipInvited     = "invited"
	MembershipDeactivated = "deactivated"
)

// Membership ties a user to an organization with either a built-in role name
// or a reference to a custom organization role.
type Membership struct {
	ID             string
	UserID         string
	OrganizationID string
	Role           string  // built-in role name, used when RoleID is nil
	RoleID         *string // custom organization role, overrides Role's defaults
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrganizationRole is a custom, per-organization role with an explicit
// permission list.
type OrganizationRole struct {
	ID             string
	OrganizationID string
	Name           string
	Permissions    []Permission // Parsed from space-delimited storage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
