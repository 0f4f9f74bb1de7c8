package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Number formats applied to workbook columns.
const (
	DateNumFmt   = "yyyy-mm-dd"
	AmountNumFmt = "#,##0"
	RateNumFmt   = "0.0"
)

type workbookStyles struct {
	header int
	byKind map[columnKind]int
}

func newWorkbookStyles(f *excelize.File) (*workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	styles := &workbookStyles{header: header, byKind: make(map[columnKind]int)}
	for kind, numFmt := range map[columnKind]string{
		columnDate:   DateNumFmt,
		columnAmount: AmountNumFmt,
		columnRate:   RateNumFmt,
	} {
		code := numFmt
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
		if err != nil {
			return nil, fmt.Errorf("failed to create %q style: %w", numFmt, err)
		}
		styles.byKind[kind] = id
	}
	return styles, nil
}

// writeWorkbook renders the tables as sheets of one workbook, in order.
func writeWorkbook(out io.Writer, tables []table) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return err
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.name, err)
		}

		if err := writeSheet(f, styles, t); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", t.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, styles *workbookStyles, t table) error {
	header := make([]any, len(t.columns))
	for i, c := range t.columns {
		header[i] = c.header
	}
	if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(t.name, cell, &values); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.name, "A1", lastCol+"1", styles.header); err != nil {
		return err
	}

	for i, c := range t.columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(t.name, col, col, c.width); err != nil {
			return err
		}
		style, ok := styles.byKind[c.kind]
		if !ok || len(t.rows) == 0 {
			continue
		}
		if err := f.SetCellStyle(t.name, col+"2", fmt.Sprintf("%s%d", col, len(t.rows)+1), style); err != nil {
			return err
		}
	}

	return f.SetPanes(t.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
