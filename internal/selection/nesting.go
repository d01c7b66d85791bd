package selection

import (
	"encoding/json"
	"fmt"
	"strings"

	"swiftflow/api/internal/department"
)

// Nesting flag keys. Each nesting table (plate, part, result) writes its
// own flagged entries so the three tables never shadow each other in
// latest-wins scans.
const (
	FlagNestingPlate  = "nestingPlateSelection"
	FlagNestingPart   = "nestingPartSelection"
	FlagNestingResult = "nestingResultSelection"
)

// NestingFlagForTable maps a table name to its payload flag key.
func NestingFlagForTable(table string) (string, bool) {
	switch table {
	case "plate":
		return FlagNestingPlate, true
	case "part":
		return FlagNestingPart, true
	case "result":
		return FlagNestingResult, true
	default:
		return "", false
	}
}

// EncodeNesting serializes a nesting selection: the row ids plus the
// table's boolean flag key.
func EncodeNesting(ids []string, flagKey string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(map[string]any{
		"selectedRowIds": ids,
		flagKey:          true,
	})
	if err != nil {
		return "", fmt.Errorf("encode nesting selection: %w", err)
	}
	return string(b), nil
}

// LatestFlaggedRowIDs returns the newest row-id list for the department
// among entries carrying the given flag key.
func LatestFlaggedRowIDs(entries []Entry, dept department.Department, flagKey string) []string {
	e := latest(entries, func(e Entry) bool {
		return e.Stage == dept && HasRowSelection(e.Payload) && strings.Contains(e.Payload, flagKey)
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
