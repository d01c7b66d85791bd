package selection

import (
	"strings"
	"testing"
)

func TestEncodeAlwaysEmitsRowIDs(t *testing.T) {
	raw, err := Encode(Payload{ThreeCheckbox: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(raw, `"selectedRowIds":[]`) {
		t.Fatalf("empty selection must keep the marker, got %s", raw)
	}
}

func TestEncodeOmitsAbsentOptionals(t *testing.T) {
	raw, err := Encode(Payload{SelectedRowIDs: []string{"1"}, ThreeCheckbox: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, field := range []string{"pdfType", "scope", "userId", "username", "machineId", "machineName", "selectedItems", "source", "scopes"} {
		if strings.Contains(raw, field) {
			t.Errorf("absent %s should not be serialized, got %s", field, raw)
		}
	}
}

func TestEncodeMergedHasNoRowSelectionMarker(t *testing.T) {
	raw, err := EncodeMerged(map[ScopeKey][]string{ScopePDF2Results: {"RESULT-1"}})
	if err != nil {
		t.Fatalf("EncodeMerged: %v", err)
	}
	if HasRowSelection(raw) {
		t.Fatalf("merged payload must not match row-selection scans, got %s", raw)
	}
	if !HasMergeMarker(raw) || !HasCheckboxMarker(raw) {
		t.Fatalf("merged payload missing markers: %s", raw)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	userID := int64(7)
	machineID := int64(3)
	in := Payload{
		SelectedRowIDs: []string{"RESULT-1", "2"},
		ThreeCheckbox:  true,
		PdfType:        "PDF2",
		Scope:          "NESTING_RESULTS",
		UserID:         &userID,
		Username:       "ravi",
		MachineID:      &machineID,
		MachineName:    "Laser-1",
	}
	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, ok := Decode(raw)
	if !ok {
		t.Fatalf("Decode failed for %s", raw)
	}
	if len(out.SelectedRowIDs) != 2 || out.SelectedRowIDs[0] != "RESULT-1" {
		t.Errorf("row ids = %v", out.SelectedRowIDs)
	}
	if out.UserID == nil || *out.UserID != 7 {
		t.Errorf("userId = %v", out.UserID)
	}
	if out.MachineID == nil || *out.MachineID != 3 || out.MachineName != "Laser-1" {
		t.Errorf("machine context = %v %q", out.MachineID, out.MachineName)
	}
}

func TestDecodeBestEffort(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "plain text", raw: "Sent to Inspection"},
		{name: "truncated json", raw: `{"selectedRowIds":["1"`},
		{name: "wrong type", raw: `{"selectedRowIds":"not-an-array"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := Decode(tc.raw); ok {
				t.Fatalf("Decode(%q) should fail softly", tc.raw)
			}
		})
	}
}

func TestDecodeFiltersBlankIDs(t *testing.T) {
	p, ok := Decode(`{"selectedRowIds":["1","","  ","2"]}`)
	if !ok {
		t.Fatal("Decode failed")
	}
	if len(p.SelectedRowIDs) != 2 || p.SelectedRowIDs[0] != "1" || p.SelectedRowIDs[1] != "2" {
		t.Fatalf("row ids = %v", p.SelectedRowIDs)
	}
}

func TestHasUserMarker(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		id   int64
		want bool
	}{
		{name: "exact", raw: `{"userId":7,"selectedRowIds":[]}`, id: 7, want: true},
		{name: "trailing field", raw: `{"selectedRowIds":[],"userId":12}`, id: 12, want: true},
		{name: "prefix of longer id", raw: `{"userId":12}`, id: 1, want: false},
		{name: "absent", raw: `{"selectedRowIds":[]}`, id: 7, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasUserMarker(tc.raw, tc.id); got != tc.want {
				t.Fatalf("HasUserMarker(%q, %d) = %v, want %v", tc.raw, tc.id, got, tc.want)
			}
		})
	}
}

func TestExtractRowIDsBracketFallback(t *testing.T) {
	got := ExtractRowIDs(`selected rows: ["1", "RESULT-2", 3]`)
	want := []string{"1", "RESULT-2", "3"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}
