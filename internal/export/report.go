package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

// ReportRow is one nesting row shown in the report. The row details come
// from the designer's stored selectedItems; keys beyond the known set are
// listed verbatim.
type ReportRow struct {
	RowID     string
	Material  string
	Thickness string
	Size      string
	Quantity  string
}

// ReportData is everything the order report template needs. The selection
// columns are the reconstructed per-department row-id lists.
type ReportData struct {
	OrderID        int64
	ProductDetails string
	Material       string
	Department     string
	GeneratedAt    time.Time

	DesignRows     []ReportRow
	DesignIDs      []string
	ProductionIDs  []string
	MachineIDs     []string
	InspectionIDs  []string
	MachineName    string
}

var reportTmpl = template.Must(template.New("orderReport").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 18px; margin-bottom: 2px; }
.meta { color: #555; margin-bottom: 16px; }
table { border-collapse: collapse; width: 100%; margin-bottom: 18px; }
th, td { border: 1px solid #bbb; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
.cols td { vertical-align: top; }
</style>
</head>
<body>
<h1>Order #{{.OrderID}} Report</h1>
<div class="meta">
{{.ProductDetails}}{{if .Material}} &middot; {{.Material}}{{end}} &middot; stage {{.Department}}
&middot; generated {{.GeneratedAt.Format "02-01-2006 15:04"}}
{{if .MachineName}}&middot; machine {{.MachineName}}{{end}}
</div>

{{if .DesignRows}}
<h2>Designer rows</h2>
<table>
<tr><th>Row</th><th>Material</th><th>Thickness</th><th>Size</th><th>Qty</th></tr>
{{range .DesignRows}}
<tr><td>{{.RowID}}</td><td>{{.Material}}</td><td>{{.Thickness}}</td><td>{{.Size}}</td><td>{{.Quantity}}</td></tr>
{{end}}
</table>
{{end}}

<h2>Selections</h2>
<table class="cols">
<tr><th>Design</th><th>Production</th><th>Machine</th><th>Inspection</th></tr>
<tr>
<td>{{range .DesignIDs}}{{.}}<br>{{end}}</td>
<td>{{range .ProductionIDs}}{{.}}<br>{{end}}</td>
<td>{{range .MachineIDs}}{{.}}<br>{{end}}</td>
<td>{{range .InspectionIDs}}{{.}}<br>{{end}}</td>
</tr>
</table>
</body>
</html>`))

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// OrderReport renders the four-column selection report for an order.
func (s *Service) OrderReport(ctx context.Context, data ReportData) (*Result, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now()
	}
	var html bytes.Buffer
	if err := reportTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render report template: %w", err)
	}
	filename := fmt.Sprintf("order-%d-report.pdf", data.OrderID)
	return renderPDF(ctx, html.String(), filename)
}

// RowsFromItems converts the designer's stored selectedItems blobs into
// report rows, tolerating missing or oddly-typed fields.
func RowsFromItems(items []json.RawMessage) []ReportRow {
	rows := make([]ReportRow, 0, len(items))
	for _, raw := range items {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		rows = append(rows, ReportRow{
			RowID:     stringField(m, "rowId", "id"),
			Material:  stringField(m, "material"),
			Thickness: stringField(m, "thickness"),
			Size:      stringField(m, "size"),
			Quantity:  stringField(m, "quantity", "qty"),
		})
	}
	return rows
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			if t == float64(int64(t)) {
				return fmt.Sprintf("%d", int64(t))
			}
			return fmt.Sprintf("%g", t)
		}
	}
	return ""
}
