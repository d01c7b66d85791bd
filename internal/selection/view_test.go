package selection

import (
	"reflect"
	"testing"

	"swiftflow/api/internal/department"
)

func TestLatestDepartmentRowIDs(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Design, Payload: `{"selectedRowIds":["1","2"]}`},
		{ID: 3, Stage: department.Design, Payload: `{"selectedRowIds":["3"]}`},
		{ID: 2, Stage: department.Design, Payload: `{"selectedRowIds":["old"]}`},
		{ID: 4, Stage: department.Production, Payload: `{"selectedRowIds":["p1"]}`},
		{ID: 5, Stage: department.Design, Payload: "Design approved"},
	}

	got := LatestDepartmentRowIDs(entries, department.Design)
	if !reflect.DeepEqual(got, []string{"3"}) {
		t.Fatalf("ids = %v, want [3]", got)
	}
}

func TestLatestDepartmentRowIDsEmptyOnMalformedLatest(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Design, Payload: `{"selectedRowIds":["1"]}`},
		{ID: 2, Stage: department.Design, Payload: `{"selectedRowIds":["2"`},
	}
	// The newest matching entry wins even when it fails to decode; a
	// malformed winner yields an empty list, not the older entry.
	got := LatestDepartmentRowIDs(entries, department.Design)
	if len(got) != 0 {
		t.Fatalf("ids = %v, want empty", got)
	}
}

func TestLatestUserRowIDsSelfOnly(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Machining, Payload: `{"selectedRowIds":["mine-old"],"threeCheckbox":true,"userId":7}`},
		{ID: 2, Stage: department.Production, Payload: `{"selectedRowIds":["mine-new"],"threeCheckbox":true,"userId":7}`},
		{ID: 3, Stage: department.Machining, Payload: `{"selectedRowIds":["theirs"],"threeCheckbox":true,"userId":8}`},
		{ID: 4, Stage: department.Design, Payload: `{"selectedRowIds":["design"],"threeCheckbox":true,"userId":7}`},
	}

	got := LatestUserRowIDs(entries, 7)
	if !reflect.DeepEqual(got, []string{"mine-new"}) {
		t.Fatalf("ids = %v, want [mine-new]", got)
	}
	if got := LatestUserRowIDs(entries, 9); len(got) != 0 {
		t.Fatalf("ids for stranger = %v, want empty", got)
	}
}

func TestMergedMachineRowIDsByScope(t *testing.T) {
	entries := []Entry{
		{ID: 9, Stage: department.Inspection, Payload: `{"threeCheckbox":true,"source":"MACHINING_MERGE","scopes":{"PDF2_RESULTS":["RESULT-1"],"PDF2_PLATE_INFO":["PLATE-2"]}}`},
	}

	if got := MergedMachineRowIDs(entries, ScopePDF2Results); !reflect.DeepEqual(got, []string{"RESULT-1"}) {
		t.Fatalf("ids = %v, want [RESULT-1]", got)
	}
	if got := MergedMachineRowIDs(entries, ScopePDF1Parts); len(got) != 0 {
		t.Fatalf("ids = %v, want empty for absent scope", got)
	}
}

func TestMergedMachineRowIDsUnion(t *testing.T) {
	entries := []Entry{
		{ID: 9, Stage: department.Inspection, Payload: `{"threeCheckbox":true,"source":"MACHINING_MERGE","scopes":{"PDF2_PLATE_INFO":["PLATE-2"],"PDF1_SUBNEST":["4"],"PDF2_RESULTS":["RESULT-1"]}}`},
	}

	got := MergedMachineRowIDs(entries, "")
	want := []string{"4", "RESULT-1", "PLATE-2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("union = %v, want %v", got, want)
	}
}

func TestMergedMachineRowIDsLatestWins(t *testing.T) {
	entries := []Entry{
		{ID: 5, Stage: department.Inspection, Payload: `{"source":"MACHINING_MERGE","scopes":{"PDF2_RESULTS":["old"]}}`},
		{ID: 8, Stage: department.Inspection, Payload: `{"source":"MACHINING_MERGE","scopes":{"PDF2_RESULTS":["new"]}}`},
	}

	if got := MergedMachineRowIDs(entries, ScopePDF2Results); !reflect.DeepEqual(got, []string{"new"}) {
		t.Fatalf("ids = %v, want [new]", got)
	}
}

func TestMergedMachineRowIDsRejectsForeignSource(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Inspection, Payload: `{"source":"SOMETHING_ELSE with MACHINING_MERGE inside","scopes":{"PDF2_RESULTS":["x"]}}`},
	}
	if got := MergedMachineRowIDs(entries, ScopePDF2Results); len(got) != 0 {
		t.Fatalf("ids = %v, want empty", got)
	}
}

func TestLatestMachineContext(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Machining, Payload: `{"selectedRowIds":["1"],"machineId":3,"machineName":"Laser-1"}`},
		{ID: 2, Stage: department.Machining, Payload: `{"selectedRowIds":["2"]}`},
	}

	ctx, ok := LatestMachineContext(entries)
	if !ok {
		t.Fatal("expected machine context")
	}
	if ctx.MachineID == nil || *ctx.MachineID != 3 || ctx.MachineName != "Laser-1" {
		t.Fatalf("ctx = %+v", ctx)
	}
}

func TestLatestMachineContextAbsent(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Machining, Payload: `{"selectedRowIds":["1"]}`},
	}
	if _, ok := LatestMachineContext(entries); ok {
		t.Fatal("expected no machine context")
	}
}

func TestMachiningSelectionBracketFallback(t *testing.T) {
	entries := []Entry{
		{ID: 1, Stage: department.Machining, Payload: `legacy selectedRowIds ["7", "8"]`},
	}

	ids, ctx := MachiningSelection(entries)
	if !reflect.DeepEqual(ids, []string{"7", "8"}) {
		t.Fatalf("ids = %v, want [7 8]", ids)
	}
	if ctx.MachineID != nil || ctx.MachineName != "" {
		t.Fatalf("ctx = %+v, want empty", ctx)
	}
}
