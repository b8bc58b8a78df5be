package domain

// Permission is a dotted capability string, e.g. "leads.view".
type Permission string

// Lead management
const (
	PermLeadsView    Permission = "leads.view"
	PermLeadsCreate  Permission = "leads.create"
	PermLeadsEdit    Permission = "leads.edit"
	PermLeadsDelete  Permission = "leads.delete"
	PermLeadsAssign  Permission = "leads.assign"
	PermLeadsViewAll Permission = "leads.view_all"
)

// Client management
const (
	PermClientsView    Permission = "clients.view"
	PermClientsCreate  Permission = "clients.create"
	PermClientsEdit    Permission = "clients.edit"
	PermClientsDelete  Permission = "clients.delete"
	PermClientsViewAll Permission = "clients.view_all"
)

// Quote management
const (
	PermQuotesView    Permission = "quotes.view"
	PermQuotesCreate  Permission = "quotes.create"
	PermQuotesEdit    Permission = "quotes.edit"
	PermQuotesDelete  Permission = "quotes.delete"
	PermQuotesApprove Permission = "quotes.approve"
)

// Communications (calls, SMS, notes)
const (
	PermCommunicationsView   Permission = "communications.view"
	PermCommunicationsCreate Permission = "communications.create"
	PermCommunicationsEdit   Permission = "communications.edit"
	PermCommunicationsDelete Permission = "communications.delete"
)

// Reporting
const (
	PermReportsView   Permission = "reports.view"
	PermReportsCreate Permission = "reports.create"
	PermReportsExport Permission = "reports.export"
)

// User management
const (
	PermUsersView        Permission = "users.view"
	PermUsersInvite      Permission = "users.invite"
	PermUsersEdit        Permission = "users.edit"
	PermUsersDeactivate  Permission = "users.deactivate"
	PermUsersManageRoles Permission = "users.manage_roles"
)

// Organization management
const (
	PermOrganizationView         Permission = "organization.view"
	PermOrganizationEdit         Permission = "organization.edit"
	PermOrganizationBilling      Permission = "organization.billing"
	PermOrganizationIntegrations Permission = "organization.integrations"
)

// System administration
const (
	PermSystemAdmin  Permission = "system.admin"
	PermSystemAudit  Permission = "system.audit"
	PermSystemBackup Permission = "system.backup"
)

// AllPermissions is the complete catalogue. Owners hold every entry.
var AllPermissions = []Permission{
	PermLeadsView, PermLeadsCreate, PermLeadsEdit, PermLeadsDelete, PermLeadsAssign, PermLeadsViewAll,
	PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsDelete, PermClientsViewAll,
	PermQuotesView, PermQuotesCreate, PermQuotesEdit, PermQuotesDelete, PermQuotesApprove,
	PermCommunicationsView, PermCommunicationsCreate, PermCommunicationsEdit, PermCommunicationsDelete,
	PermReportsView, PermReportsCreate, PermReportsExport,
	PermUsersView, PermUsersInvite, PermUsersEdit, PermUsersDeactivate, PermUsersManageRoles,
	PermOrganizationView, PermOrganizationEdit, PermOrganizationBilling, PermOrganizationIntegrations,
	PermSystemAdmin, PermSystemAudit, PermSystemBackup,
}

// Built-in role names. Memberships may instead reference a custom
// organization role, which carries its own permission list.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleUser    = "user"
)

// DefaultRole is assumed when a user's role cannot be resolved.
const DefaultRole = RoleUser

// RolePermissions maps each built-in role to its default grant set.
var RolePermissions = map[string][]Permission{
	RoleOwner: AllPermissions,
	RoleAdmin: {
		PermLeadsView, PermLeadsCreate, PermLeadsEdit, PermLeadsAssign, PermLeadsViewAll,
		PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsViewAll,
		PermQuotesView, PermQuotesCreate, PermQuotesEdit, PermQuotesApprove,
		PermCommunicationsView, PermCommunicationsCreate, PermCommunicationsEdit,
		PermReportsView, PermReportsCreate, PermReportsExport,
		PermUsersView, PermUsersInvite, PermUsersEdit, PermUsersManageRoles,
		PermOrganizationView, PermOrganizationEdit, PermOrganizationIntegrations,
	},
	RoleManager: {
		PermLeadsView, PermLeadsCreate, PermLeadsEdit, PermLeadsAssign, PermLeadsViewAll,
		PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsViewAll,
		PermQuotesView, PermQuotesCreate, PermQuotesEdit,
		PermCommunicationsView, PermCommunicationsCreate, PermCommunicationsEdit,
		PermReportsView, PermReportsCreate, PermReportsExport,
		PermUsersView,
	},
	RoleAgent: {
		PermLeadsView, PermLeadsCreate, PermLeadsEdit,
		PermClientsView, PermClientsCreate, PermClientsEdit,
		PermQuotesView, PermQuotesCreate, PermQuotesEdit,
		PermCommunicationsView, PermCommunicationsCreate, PermCommunicationsEdit,
		PermReportsView,
	},
	RoleUser: {
		PermLeadsView,
		PermClientsView,
		PermQuotesView,
		PermCommunicationsView,
		PermReportsView,
	},
}

// IsAdminRole reports whether a role name carries organization-admin powers.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleOwner
}
