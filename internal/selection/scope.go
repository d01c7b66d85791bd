// Package selection implements the order selection ledger semantics: scope
// key derivation, the JSON selection payload carried on status entries,
// write-role resolution, the machining merge, and the latest-wins view
// reconstruction helpers.
package selection

import "strings"

// ScopeKey partitions row selections by document and logical section.
type ScopeKey string

const (
	ScopePDF1Subnest   ScopeKey = "PDF1_SUBNEST"
	ScopePDF1Parts     ScopeKey = "PDF1_PARTS"
	ScopePDF1Material  ScopeKey = "PDF1_MATERIAL"
	ScopePDF2Results   ScopeKey = "PDF2_RESULTS"
	ScopePDF2PlateInfo ScopeKey = "PDF2_PLATE_INFO"
	ScopePDF2PartInfo  ScopeKey = "PDF2_PART_INFO"
)

// ResolveScopeKey maps an explicit (pdfType, scope) pair to its canonical
// key. The second return is false for unrecognized pairs, in which case
// callers fall back to per-row-id inference.
func ResolveScopeKey(pdfType, scope string) (ScopeKey, bool) {
	t := strings.ToUpper(strings.TrimSpace(pdfType))
	s := strings.ToUpper(strings.TrimSpace(scope))

	switch t {
	case "PDF1":
		switch s {
		case "SUBNEST":
			return ScopePDF1Subnest, true
		case "PARTS":
			return ScopePDF1Parts, true
		case "MATERIAL":
			return ScopePDF1Material, true
		}
	case "PDF2":
		switch s {
		case "NESTING_RESULTS":
			return ScopePDF2Results, true
		case "NESTING_PLATE_INFO":
			return ScopePDF2PlateInfo, true
		case "NESTING_PART_INFO":
			return ScopePDF2PartInfo, true
		}
	}
	return "", false
}

// ValidPdfType reports whether the value names a known document.
func ValidPdfType(pdfType string) bool {
	switch strings.ToUpper(strings.TrimSpace(pdfType)) {
	case "PDF1", "PDF2":
		return true
	}
	return false
}

// ValidScope reports whether the value names a known section of either
// document. Validity is per-enum; a scope from one document combined with
// the other document's pdfType is still a valid addressing pair, it just
// names tables that never get rows.
func ValidScope(scope string) bool {
	switch strings.ToUpper(strings.TrimSpace(scope)) {
	case "SUBNEST", "PARTS", "MATERIAL", "NESTING_RESULTS", "NESTING_PLATE_INFO", "NESTING_PART_INFO":
		return true
	}
	return false
}

// InferScopeKey classifies a legacy row id by its textual prefix. Ids that
// carry no nesting prefix are treated as plain subnest row numbers.
func InferScopeKey(rowID string) ScopeKey {
	switch {
	case strings.HasPrefix(rowID, "RESULT-"):
		return ScopePDF2Results
	case strings.HasPrefix(rowID, "PLATE-"):
		return ScopePDF2PlateInfo
	case strings.HasPrefix(rowID, "PART-"):
		return ScopePDF2PartInfo
	default:
		return ScopePDF1Subnest
	}
}
