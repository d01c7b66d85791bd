package selection

import (
	"errors"

	"swiftflow/api/internal/department"
)

// ErrNothingToMerge is returned when no machining entry yields any row id.
var ErrNothingToMerge = errors.New("no machine selections found to merge")

// MergePlan groups machining row ids by scope key, preserving first-seen
// order of both scopes and ids within a scope.
type MergePlan struct {
	order []ScopeKey
	byKey map[ScopeKey][]string
	seen  map[ScopeKey]map[string]struct{}
}

func (p *MergePlan) add(key ScopeKey, id string) {
	if p.byKey == nil {
		p.byKey = make(map[ScopeKey][]string)
		p.seen = make(map[ScopeKey]map[string]struct{})
	}
	ids, ok := p.seen[key]
	if !ok {
		ids = make(map[string]struct{})
		p.seen[key] = ids
		p.order = append(p.order, key)
	}
	if _, dup := ids[id]; dup {
		return
	}
	ids[id] = struct{}{}
	p.byKey[key] = append(p.byKey[key], id)
}

// Scopes returns the grouped ids keyed by scope.
func (p *MergePlan) Scopes() map[ScopeKey][]string {
	return p.byKey
}

// ScopeOrder returns scope keys in first-seen order.
func (p *MergePlan) ScopeOrder() []ScopeKey {
	return p.order
}

// Total counts the merged row ids across all scopes.
func (p *MergePlan) Total() int {
	n := 0
	for _, ids := range p.byKey {
		n += len(ids)
	}
	return n
}

// PlanMachiningMerge scans all machining-stage checkbox entries and unions
// their row ids per scope. An entry that carries an explicit pdfType/scope
// pair contributes all of its ids to that one scope; legacy entries are
// split per id by prefix inference. Malformed payloads are skipped.
func PlanMachiningMerge(entries []Entry) (*MergePlan, error) {
	plan := &MergePlan{}
	for _, e := range entries {
		if e.Stage != department.Machining || e.Payload == "" {
			continue
		}
		if !HasCheckboxMarker(e.Payload) || !HasRowSelection(e.Payload) {
			continue
		}
		p, ok := Decode(e.Payload)
		if !ok {
			continue
		}

		explicit, hasExplicit := ScopeKey(""), false
		if p.PdfType != "" && p.Scope != "" {
			explicit, hasExplicit = ResolveScopeKey(p.PdfType, p.Scope)
		}

		for _, id := range p.SelectedRowIDs {
			key := explicit
			if !hasExplicit {
				key = InferScopeKey(id)
			}
			plan.add(key, id)
		}
	}
	if plan.Total() == 0 {
		return nil, ErrNothingToMerge
	}
	return plan, nil
}
