package selection

import (
	"errors"
	"strings"

	"swiftflow/api/internal/department"
)

var (
	// ErrAmbiguousAdminRole rejects an admin write whose body does not pin
	// down exactly one department.
	ErrAmbiguousAdminRole = errors.New("ADMIN must provide exactly one non-empty role selection array")

	// ErrRoleUndetermined rejects a write when no signal identifies the
	// acting department.
	ErrRoleUndetermined = errors.New("unable to determine role")
)

// RoleBody carries the role-specific selection arrays of a checkbox write.
// MachineSelectedRowIDs never participates in inference; machinists are
// identified by authority or context instead.
type RoleBody struct {
	DesignerSelectedRowIDs   []string
	ProductionSelectedRowIDs []string
	MachineSelectedRowIDs    []string
	InspectionSelectedRowIDs []string
}

// ContextHints are the request headers that identify which department UI
// section issued the call.
type ContextHints struct {
	Referer      string
	ForwardedURI string
	OriginalURI  string
	OriginalURL  string
}

// ResolveWriteRole derives the acting department for a shared-endpoint
// write. No single signal is reliable on its own, so precedence is strict:
// admin body disambiguation, then body-driven inference for design and
// production, then UI path hints, then the caller's own authority.
func ResolveWriteRole(authority department.Department, body RoleBody, hints ContextHints) (department.Department, error) {
	bodyNonEmpty := 0
	var bodyInferred department.Department
	if len(body.DesignerSelectedRowIDs) > 0 {
		bodyNonEmpty++
		bodyInferred = department.Design
	}
	if len(body.ProductionSelectedRowIDs) > 0 {
		bodyNonEmpty++
		bodyInferred = department.Production
	}

	if authority == department.Admin {
		if bodyNonEmpty != 1 {
			return "", ErrAmbiguousAdminRole
		}
		return bodyInferred, nil
	}

	if bodyNonEmpty == 1 {
		return bodyInferred, nil
	}

	if dept, ok := roleFromContext(hints); ok {
		return dept, nil
	}

	switch authority {
	case department.Design, department.Production, department.Machining, department.Inspection:
		return authority, nil
	}
	return "", ErrRoleUndetermined
}

func roleFromContext(hints ContextHints) (department.Department, bool) {
	context := strings.ToLower(strings.Join([]string{
		hints.Referer, hints.ForwardedURI, hints.OriginalURI, hints.OriginalURL,
	}, " "))

	switch {
	case strings.Contains(context, "/designuser/"):
		return department.Design, true
	case strings.Contains(context, "/productionuser/"):
		return department.Production, true
	case strings.Contains(context, "/mechanistuser/"),
		strings.Contains(context, "/mechanicuser/"),
		strings.Contains(context, "/machinistuser/"):
		return department.Machining, true
	case strings.Contains(context, "/inspectionuser/"):
		return department.Inspection, true
	}
	return "", false
}
