// file: common/permissions.go

package common

// ClaimTypePermission is the claim type key used by the permission policy.
// A user or role claim of this type grants access to the matching endpoint.
const ClaimTypePermission = "Permission"

// Permission values understood by the permission middleware. Roles carry
// these as claims of type "Permission"; they end up inside the access token
// and are checked per-endpoint.
const (
	PermissionForecastView = "Permissions.Forecast.View"

	PermissionRolesView   = "Permissions.Roles.View"
	PermissionRolesCreate = "Permissions.Roles.Create"
	PermissionRolesEdit   = "Permissions.Roles.Edit"
	PermissionRolesDelete = "Permissions.Roles.Delete"

	PermissionRoleClaimsView   = "Permissions.RoleClaims.View"
	PermissionRoleClaimsCreate = "Permissions.RoleClaims.Create"
	PermissionRoleClaimsEdit   = "Permissions.RoleClaims.Edit"
	PermissionRoleClaimsDelete = "Permissions.RoleClaims.Delete"
)

// RoleAdministrator is the seeded role that owns every permission above.
const RoleAdministrator = "Administrator"
