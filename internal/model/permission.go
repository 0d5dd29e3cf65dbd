package model

// Permission represents a string code for a specific dashboard action.
type Permission string

const (
	// PermissionResultsRead allows viewing individual candidate results.
	PermissionResultsRead Permission = "results:read"

	// PermissionDashboardRead allows viewing aggregate competency statistics.
	PermissionDashboardRead Permission = "dashboard:read"

	// PermissionSessionsMonitor allows attaching to a live session feed.
	PermissionSessionsMonitor Permission = "sessions:monitor"

	// PermissionSystemRead allows viewing queue depths and runtime status.
	PermissionSystemRead Permission = "system:read"
)

// RolePermissions maps each HR role to the permissions it grants.
var RolePermissions = map[HRRole][]Permission{
	HRRoleAdmin:    {PermissionResultsRead, PermissionDashboardRead, PermissionSessionsMonitor, PermissionSystemRead},
	HRRoleReviewer: {PermissionResultsRead},
}

// PermissionsFor returns the permission codes granted to role.
func PermissionsFor(role HRRole) []string {
	perms := RolePermissions[role]
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
