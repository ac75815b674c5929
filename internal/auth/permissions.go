// Package auth - Permission checking
package auth

// Action represents a permission action on a console page
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// AdminRole is the built-in role with every permission.
const AdminRole = "admin"

// RolePermissions is the decoded permissions map of a role: keys are
// "<entity>.<action>" or the wildcard "<entity>.*".
type RolePermissions map[string]any

// Allows reports whether the role grants the action on the entity. The
// admin role code bypasses the map entirely.
func Allows(roleCode string, perms RolePermissions, entity string, action Action) bool {
	if roleCode == AdminRole {
		return true
	}
	if perms == nil {
		return false
	}
	if granted(perms, entity+"."+string(action)) {
		return true
	}
	return granted(perms, entity+".*")
}

func granted(perms RolePermissions, key string) bool {
	v, ok := perms[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
