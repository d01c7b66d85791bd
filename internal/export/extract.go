package export

import "context"

// DocumentRow is one row of a nesting document's table: an opaque row id
// plus the detail fields the report shows.
type DocumentRow struct {
	RowID     string
	Material  string
	Thickness string
	Size      string
	Quantity  string
}

// RowExtractor produces the ordered row universe from a nesting document
// URL. Row ids are treated as opaque strings; nothing here validates
// selection ids against the extracted set.
type RowExtractor interface {
	ParseRows(ctx context.Context, documentURL string) ([]DocumentRow, error)
}

// RowsFromDocument converts extracted rows into report rows.
func RowsFromDocument(rows []DocumentRow) []ReportRow {
	out := make([]ReportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReportRow{
			RowID:     r.RowID,
			Material:  r.Material,
			Thickness: r.Thickness,
			Size:      r.Size,
			Quantity:  r.Quantity,
		})
	}
	return out
}
