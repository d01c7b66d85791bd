package selection

import "swiftflow/api/internal/department"

// canonicalScopeOrder fixes the iteration order when a merged entry's
// scopes are unioned without a requested scope. JSON object order is not
// preserved through decoding, so the union follows the enum order instead.
var canonicalScopeOrder = []ScopeKey{
	ScopePDF1Subnest,
	ScopePDF1Parts,
	ScopePDF1Material,
	ScopePDF2Results,
	ScopePDF2PlateInfo,
	ScopePDF2PartInfo,
}

// LatestDepartmentRowIDs returns the row ids of the newest row-selection
// entry for the department, or an empty list.
func LatestDepartmentRowIDs(entries []Entry, dept department.Department) []string {
	e := latest(entries, func(e Entry) bool {
		return e.Stage == dept && HasRowSelection(e.Payload)
	})
	if e == nil {
		return []string{}
	}
	p, ok := Decode(e.Payload)
	if !ok || p.SelectedRowIDs == nil {
		return []string{}
	}
	return p.SelectedRowIDs
}

// LatestUserRowIDs returns the row ids of the user's newest checkbox entry
// across the production and machining stages. Machinist views are built
// entirely from this: a machinist only ever sees their own submissions.
func LatestUserRowIDs(entries []Entry, userID int64) []string {
	e := latest(entries, func(e Entry) bool {
		if e.Stage != department.Production && e.Stage != department.Machining {
			return false
		}
		return HasCheckboxMarker(e.Payload) && HasRowSelection(e.Payload) && HasUserMarker(e.Payload, userID)
	})
	if e == nil {
		return []string{}
	}
	p, ok := Decode(e.Payload)
	if !ok || p.SelectedRowIDs == nil {
		return []string{}
	}
	return p.SelectedRowIDs
}

// LatestMachiningCheckboxRowIDs returns the newest machining checkbox
// selection, department-wide.
func LatestMachiningCheckboxRowIDs(entries []Entry) []string {
	e := latest(entries, func(e Entry) bool {
		return e.Stage == department.Machining && HasCheckboxMarker(e.Payload) && HasRowSelection(e.Payload)
	})
	if e == nil {
		return []string{}
	}
	p, ok := Decode(e.Payload)
	if !ok || p.SelectedRowIDs == nil {
		return []string{}
	}
	return p.SelectedRowIDs
}

// MergedMachineRowIDs reads the newest inspection-stage merge entry. With a
// scope key it returns that scope's list; without one it returns the union
// of all scopes in canonical order. Entries whose source field disclaims
// the merge shape are ignored.
func MergedMachineRowIDs(entries []Entry, scope ScopeKey) []string {
	e := latest(entries, func(e Entry) bool {
		return e.Stage == department.Inspection && HasMergeMarker(e.Payload)
	})
	if e == nil {
		return []string{}
	}
	p, ok := Decode(e.Payload)
	if !ok || (p.Source != "" && p.Source != MergeSource) || p.Scopes == nil {
		return []string{}
	}

	if scope != "" {
		ids := p.Scopes[scope]
		if ids == nil {
			return []string{}
		}
		return ids
	}

	out := []string{}
	for _, key := range canonicalScopeOrder {
		out = append(out, p.Scopes[key]...)
	}
	return out
}

// MachineContext is the machine id/name pair recorded alongside a
// machining selection.
type MachineContext struct {
	MachineID   *int64
	MachineName string
}

// LatestMachineContext returns the machine context of the newest machining
// entry carrying one, if any.
func LatestMachineContext(entries []Entry) (MachineContext, bool) {
	e := latest(entries, func(e Entry) bool {
		return e.Stage == department.Machining && HasMachineContext(e.Payload)
	})
	if e == nil {
		return MachineContext{}, false
	}
	p, ok := Decode(e.Payload)
	if !ok || (p.MachineID == nil && p.MachineName == "") {
		return MachineContext{}, false
	}
	return MachineContext{MachineID: p.MachineID, MachineName: p.MachineName}, true
}

// MachiningSelection is the legacy single-scope machining read: the newest
// machining entry with any row-selection marker, with a raw bracket-parse
// fallback when the payload predates the JSON encoding.
func MachiningSelection(entries []Entry) ([]string, MachineContext) {
	e := latest(entries, func(e Entry) bool {
		return e.Stage == department.Machining && HasRowSelection(e.Payload)
	})
	if e == nil {
		return []string{}, MachineContext{}
	}
	p, ok := Decode(e.Payload)
	if !ok {
		return ExtractRowIDs(e.Payload), MachineContext{}
	}
	ids := p.SelectedRowIDs
	if ids == nil {
		ids = []string{}
	}
	return ids, MachineContext{MachineID: p.MachineID, MachineName: p.MachineName}
}
