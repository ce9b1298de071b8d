package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermCatalogRead  Permission = "catalog:read"
	PermReadingWrite Permission = "reading:write"
	PermBusPublish   Permission = "bus:publish"
	PermReportRun    Permission = "report:run"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermCatalogRead,
	},
	RoleOperator: {
		PermCatalogRead,
		PermReadingWrite,
		PermBusPublish,
	},
	RoleAdmin: {
		PermCatalogRead,
		PermReadingWrite,
		PermBusPublish,
		PermReportRun,
	},
}

// HasPermission reports whether role grants perm. Unknown roles have no
// permissions.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
