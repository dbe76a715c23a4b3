package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
)

const (
	PermOrgRead       = "core.org.read"
	PermOrgWrite      = "core.org.write"
	PermLeaveRead     = "leave.read"
	PermLeaveWrite    = "leave.write"
	PermLeaveApprove  = "leave.approve"
	PermLeaveAllocate = "leave.allocate"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermOrgRead,
		PermLeaveRead,
		PermLeaveWrite,
	},
	RoleManager: {
		PermOrgRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
	},
	RoleHR: {
		PermOrgRead,
		PermOrgWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermLeaveAllocate,
	},
}

// HasPermission resolves against the static role tables. Permissions are
// declared at compile time rather than probed from storage.
func HasPermission(roleName, permission string) bool {
	for _, perm := range RolePermissions[roleName] {
		if perm == permission {
			return true
		}
	}
	return false
}
