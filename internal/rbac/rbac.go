// Package rbac maps department authorities to the actions they may perform.
package rbac

import "swiftflow/api/internal/department"

type Action string

const (
	ActionRead       Action = "read"
	ActionSelect     Action = "select"
	ActionBaseSelect Action = "base_select"
	ActionAssign     Action = "assign"
	ActionMerge      Action = "merge"
	ActionAdmin      Action = "admin"
)

func Can(dept department.Department, action Action) bool {
	switch dept {
	case department.Admin:
		return true
	case department.Design:
		return action == ActionRead || action == ActionSelect || action == ActionBaseSelect
	case department.Production:
		return action == ActionRead || action == ActionSelect || action == ActionAssign
	case department.Machining:
		return action == ActionRead || action == ActionSelect || action == ActionMerge
	case department.Inspection:
		return action == ActionRead || action == ActionSelect
	default:
		return false
	}
}
