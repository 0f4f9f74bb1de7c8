package exporter

import "gasrate/pkg/contracts/domain"

// TextTable is a report table rendered to display strings.
type TextTable struct {
	Name    string
	Headers []string
	// Numeric marks right-aligned columns.
	Numeric []bool
	Rows    [][]string
}

// Preview renders every table of a result with the CSV number formatting,
// in workbook order. Empty tables are kept so the page layout is stable.
func Preview(result *domain.AnalysisResult) []TextTable {
	tables := resultTables(result)
	out := make([]TextTable, 0, len(tables))
	for _, t := range tables {
		tt := TextTable{
			Name:    t.name,
			Headers: t.headers(),
			Numeric: make([]bool, len(t.columns)),
			Rows:    make([][]string, 0, len(t.rows)),
		}
		for i, c := range t.columns {
			tt.Numeric[i] = c.kind == columnAmount || c.kind == columnRate
		}
		for _, row := range t.rows {
			tt.Rows = append(tt.Rows, t.textRow(row))
		}
		out = append(out, tt)
	}
	return out
}
