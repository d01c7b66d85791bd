package selection

import (
	"reflect"
	"testing"

	"swiftflow/api/internal/department"
)

func TestNestingFlagForTable(t *testing.T) {
	cases := []struct {
		table string
		want  string
		ok    bool
	}{
		{table: "plate", want: FlagNestingPlate, ok: true},
		{table: "part", want: FlagNestingPart, ok: true},
		{table: "result", want: FlagNestingResult, ok: true},
		{table: "subnest", ok: false},
		{table: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := NestingFlagForTable(tc.table)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NestingFlagForTable(%q) = %q, %v", tc.table, got, ok)
		}
	}
}

func TestNestingFlagsDoNotShadowEachOther(t *testing.T) {
	plate, err := EncodeNesting([]string{"PLATE-1"}, FlagNestingPlate)
	if err != nil {
		t.Fatalf("EncodeNesting: %v", err)
	}
	part, err := EncodeNesting([]string{"PART-1"}, FlagNestingPart)
	if err != nil {
		t.Fatalf("EncodeNesting: %v", err)
	}

	entries := []Entry{
		{ID: 1, Stage: department.Design, Payload: plate},
		{ID: 2, Stage: department.Design, Payload: part},
	}

	got := LatestFlaggedRowIDs(entries, department.Design, FlagNestingPlate)
	if !reflect.DeepEqual(got, []string{"PLATE-1"}) {
		t.Fatalf("plate ids = %v, want [PLATE-1]", got)
	}
	got = LatestFlaggedRowIDs(entries, department.Design, FlagNestingPart)
	if !reflect.DeepEqual(got, []string{"PART-1"}) {
		t.Fatalf("part ids = %v, want [PART-1]", got)
	}
	if got := LatestFlaggedRowIDs(entries, department.Production, FlagNestingPlate); len(got) != 0 {
		t.Fatalf("production ids = %v, want empty", got)
	}
}
