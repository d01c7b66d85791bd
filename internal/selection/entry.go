package selection

import "swiftflow/api/internal/department"

// Entry is the slice of a ledger row the selection logic needs: the global
// ordering id, the stage the order transitioned to, and the raw payload
// blob. Entries are immutable; "current value" for any predicate is the
// matching entry with the highest id.
type Entry struct {
	ID      int64
	Stage   department.Department
	Payload string
}

// latest returns the highest-id entry satisfying match, or nil.
func latest(entries []Entry, match func(Entry) bool) *Entry {
	var best *Entry
	for i := range entries {
		e := &entries[i]
		if e.Payload == "" || !match(*e) {
			continue
		}
		if best == nil || e.ID > best.ID {
			best = e
		}
	}
	return best
}
