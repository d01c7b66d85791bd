package selection

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Payload is the selection blob embedded in a status entry's comment. The
// ledger accumulates several historical shapes, so every field is optional
// on decode; Decode is best-effort and never returns an error.
type Payload struct {
	SelectedRowIDs []string              `json:"selectedRowIds"`
	ThreeCheckbox  bool                  `json:"threeCheckbox,omitempty"`
	PdfType        string                `json:"pdfType,omitempty"`
	Scope          string                `json:"scope,omitempty"`
	UserID         *int64                `json:"userId,omitempty"`
	Username       string                `json:"username,omitempty"`
	MachineID      *int64                `json:"machineId,omitempty"`
	MachineName    string                `json:"machineName,omitempty"`
	SelectedItems  []json.RawMessage     `json:"selectedItems,omitempty"`
	Source         string                `json:"source,omitempty"`
	Scopes         map[ScopeKey][]string `json:"scopes,omitempty"`
}

// merged is the shape written by the machining merge. It deliberately omits
// selectedRowIds so merged entries never match row-selection marker scans.
type merged struct {
	ThreeCheckbox bool                  `json:"threeCheckbox"`
	Source        string                `json:"source"`
	Scopes        map[ScopeKey][]string `json:"scopes"`
}

const MergeSource = "MACHINING_MERGE"

// Encode serializes a selection payload. SelectedRowIDs is always emitted,
// as an empty array when nil, so the row-selection marker stays present.
func Encode(p Payload) (string, error) {
	if p.SelectedRowIDs == nil {
		p.SelectedRowIDs = []string{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeMerged serializes the machining merge result.
func EncodeMerged(scopes map[ScopeKey][]string) (string, error) {
	b, err := json.Marshal(merged{ThreeCheckbox: true, Source: MergeSource, Scopes: scopes})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a payload blob. Malformed blobs decode to a zero Payload
// with ok=false; callers treat that as "entry does not match."
func Decode(raw string) (Payload, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, false
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, false
	}
	p.SelectedRowIDs = compactIDs(p.SelectedRowIDs)
	for k, ids := range p.Scopes {
		p.Scopes[k] = compactIDs(ids)
	}
	return p, true
}

// Marker prefilters. These run before any decode attempt: most historical
// entries carry unrelated comments and decoding each one on every read
// would be wasted work.

func HasRowSelection(raw string) bool {
	return strings.Contains(raw, "selectedRowIds")
}

func HasCheckboxMarker(raw string) bool {
	return strings.Contains(raw, "threeCheckbox")
}

func HasMergeMarker(raw string) bool {
	return strings.Contains(raw, MergeSource)
}

func HasMachineContext(raw string) bool {
	return strings.Contains(raw, "machineId") || strings.Contains(raw, "machineName")
}

// HasUserMarker matches the exact serialized form of the userId field, so a
// user id never matches a prefix of a longer id.
func HasUserMarker(raw string, userID int64) bool {
	marker := `"userId":` + strconv.FormatInt(userID, 10)
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return false
	}
	rest := raw[idx+len(marker):]
	return rest == "" || rest[0] < '0' || rest[0] > '9'
}

// ExtractRowIDs pulls the selected row ids out of a blob that may predate
// the JSON encoding, falling back to naive bracket parsing.
func ExtractRowIDs(raw string) []string {
	if p, ok := Decode(raw); ok {
		return p.SelectedRowIDs
	}
	start := strings.IndexByte(raw, '[')
	end := strings.IndexByte(raw, ']')
	if start < 0 || end <= start {
		return []string{}
	}
	var ids []string
	for _, part := range strings.Split(raw[start+1:end], ",") {
		id := strings.Trim(strings.TrimSpace(part), `"`)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

func compactIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := ids[:0]
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}
