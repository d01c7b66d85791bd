package selection

import (
	"errors"
	"reflect"
	"testing"

	"swiftflow/api/internal/department"
)

func checkboxEntry(id int64, stage department.Department, payload string) Entry {
	return Entry{ID: id, Stage: stage, Payload: payload}
}

func TestPlanMachiningMergeSplitsLegacyEntries(t *testing.T) {
	entries := []Entry{
		checkboxEntry(1, department.Machining, `{"selectedRowIds":["RESULT-1","PLATE-2"],"threeCheckbox":true}`),
		checkboxEntry(2, department.Machining, `{"selectedRowIds":["PART-9"],"threeCheckbox":true,"pdfType":"PDF2","scope":"NESTING_PART_INFO"}`),
	}

	plan, err := PlanMachiningMerge(entries)
	if err != nil {
		t.Fatalf("PlanMachiningMerge: %v", err)
	}

	want := map[ScopeKey][]string{
		ScopePDF2Results:   {"RESULT-1"},
		ScopePDF2PlateInfo: {"PLATE-2"},
		ScopePDF2PartInfo:  {"PART-9"},
	}
	if !reflect.DeepEqual(plan.Scopes(), want) {
		t.Fatalf("scopes = %v, want %v", plan.Scopes(), want)
	}
	if plan.Total() != 3 {
		t.Fatalf("total = %d, want 3", plan.Total())
	}
}

func TestPlanMachiningMergeExplicitScopeOverridesPrefix(t *testing.T) {
	// With an explicit pair, every id in the entry belongs to that scope
	// even when its prefix suggests otherwise.
	entries := []Entry{
		checkboxEntry(1, department.Machining, `{"selectedRowIds":["RESULT-1","17"],"threeCheckbox":true,"pdfType":"PDF1","scope":"PARTS"}`),
	}

	plan, err := PlanMachiningMerge(entries)
	if err != nil {
		t.Fatalf("PlanMachiningMerge: %v", err)
	}
	want := map[ScopeKey][]string{ScopePDF1Parts: {"RESULT-1", "17"}}
	if !reflect.DeepEqual(plan.Scopes(), want) {
		t.Fatalf("scopes = %v, want %v", plan.Scopes(), want)
	}
}

func TestPlanMachiningMergeDeduplicatesPreservingOrder(t *testing.T) {
	entries := []Entry{
		checkboxEntry(1, department.Machining, `{"selectedRowIds":["RESULT-2","RESULT-1"],"threeCheckbox":true}`),
		checkboxEntry(2, department.Machining, `{"selectedRowIds":["RESULT-1","RESULT-3"],"threeCheckbox":true}`),
	}

	plan, err := PlanMachiningMerge(entries)
	if err != nil {
		t.Fatalf("PlanMachiningMerge: %v", err)
	}
	want := []string{"RESULT-2", "RESULT-1", "RESULT-3"}
	if !reflect.DeepEqual(plan.Scopes()[ScopePDF2Results], want) {
		t.Fatalf("ids = %v, want %v", plan.Scopes()[ScopePDF2Results], want)
	}
}

func TestPlanMachiningMergeUnrecognizedPairFallsBackToInference(t *testing.T) {
	entries := []Entry{
		checkboxEntry(1, department.Machining, `{"selectedRowIds":["PLATE-4","8"],"threeCheckbox":true,"pdfType":"PDF9","scope":"WHAT"}`),
	}

	plan, err := PlanMachiningMerge(entries)
	if err != nil {
		t.Fatalf("PlanMachiningMerge: %v", err)
	}
	want := map[ScopeKey][]string{
		ScopePDF2PlateInfo: {"PLATE-4"},
		ScopePDF1Subnest:   {"8"},
	}
	if !reflect.DeepEqual(plan.Scopes(), want) {
		t.Fatalf("scopes = %v, want %v", plan.Scopes(), want)
	}
}

func TestPlanMachiningMergeSkipsNonMatchingEntries(t *testing.T) {
	entries := []Entry{
		// Wrong stage.
		checkboxEntry(1, department.Production, `{"selectedRowIds":["1"],"threeCheckbox":true}`),
		// No checkbox marker.
		checkboxEntry(2, department.Machining, `{"selectedRowIds":["2"]}`),
		// Malformed payload.
		checkboxEntry(3, department.Machining, `{"selectedRowIds":["3"],"threeCheckbox":tru`),
		// Plain transition comment.
		checkboxEntry(4, department.Machining, "Moved to machining"),
	}

	_, err := PlanMachiningMerge(entries)
	if !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("err = %v, want ErrNothingToMerge", err)
	}
}

func TestPlanMachiningMergeEmptyLedger(t *testing.T) {
	if _, err := PlanMachiningMerge(nil); !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("err = %v, want ErrNothingToMerge", err)
	}
}
