package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gasrate/pkg/contracts/domain"
)

// Recognized column names. The first entry is the canonical name, the rest are
// aliases found in plant exports.
var (
	timeColumn      = []string{"time", "시간"}
	meterColumn     = []string{"cumulative_gas_reading", "가스누적지침"}
	workDateColumn  = []string{"work_date", "작업일자"}
	weightColumn    = []string{"weight_kg", "중량(kg)"}
	furnaceColumn   = []string{"furnace_name", "가열로명"}
	timestampLayout = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
		"2006.01.02 15:04:05",
		"2006-01-02",
		"2006/01/02",
		"2006.01.02",
		"20060102",
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"01/02/2006",
		"1/2/2006 15:04",
		"1/2/2006",
	}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is an uploaded file reduced to a header row and string cells.
type Table struct {
	Name   string
	Format string
	Header []string
	Rows   [][]string
}

// ReadTable loads a .csv or .xlsx file. Only the first worksheet of a workbook
// is read. Header cells are trimmed.
func ReadTable(name string, r io.Reader) (*Table, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	var rows [][]string
	var err error
	switch format {
	case "csv":
		rows, err = readCSV(r)
	case "xlsx", "xlsm":
		rows, err = readWorkbook(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	table := &Table{Name: name, Format: format}
	if len(rows) == 0 {
		return table, nil
	}

	table.Header = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		table.Header[i] = strings.TrimSpace(h)
	}
	table.Rows = rows[1:]
	return table, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

// Column returns the index of the first header matching any of names, or -1.
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if h == name {
				return i
			}
		}
	}
	return -1
}

// Cell returns the trimmed value at row, col; short rows read as empty.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// DetectKind classifies a table by the columns it carries.
func DetectKind(t *Table) domain.FileKind {
	switch {
	case t.Column(timeColumn...) >= 0 && t.Column(meterColumn...) >= 0:
		return domain.FileKindGas
	case t.Column(workDateColumn...) >= 0 && t.Column(weightColumn...) >= 0:
		return domain.FileKindProduction
	default:
		return domain.FileKindUnknown
	}
}

// FurnaceIDFromFilename returns the part of the base file name before the
// first underscore, e.g. "F1_2024-03.csv" -> "F1".
func FurnaceIDFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(base, "_"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

// ExtractMeterReadings reads the cumulative meter series of a gas table.
// Rows with an empty timestamp are dropped with a warning. A timestamp that is
// present but unparseable fails the whole file. Non-numeric meter cells become
// invalid readings for the normalizer to fill.
func ExtractMeterReadings(t *Table) ([]domain.MeterReading, []domain.FileIssue, error) {
	furnaceID := FurnaceIDFromFilename(t.Name)
	if furnaceID == "" {
		return nil, nil, fmt.Errorf("cannot derive furnace id from file name %q", t.Name)
	}

	timeCol := t.Column(timeColumn...)
	meterCol := t.Column(meterColumn...)
	if timeCol < 0 || meterCol < 0 {
		return nil, nil, fmt.Errorf("gas file %s is missing the time or meter column", t.Name)
	}

	var issues []domain.FileIssue
	readings := make([]domain.MeterReading, 0, len(t.Rows))
	for i, row := range t.Rows {
		line := i + 2 // header is line 1
		if isBlankRow(row) {
			continue
		}

		raw := t.Cell(row, timeCol)
		if raw == "" {
			issues = append(issues, domain.FileIssue{
				File:     t.Name,
				Row:      line,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("row %d has no timestamp and was excluded", line),
			})
			continue
		}
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, issues, fmt.Errorf("row %d: %w", line, err)
		}

		value, ok := parseNumber(t.Cell(row, meterCol))
		readings = append(readings, domain.MeterReading{
			FurnaceID: furnaceID,
			Timestamp: ts,
			Value:     value,
			Valid:     ok,
		})
	}
	return readings, issues, nil
}

// ExtractProductionRecords reads the production rows of a production table.
// Non-numeric weights count as 0. Rows whose work date cannot be parsed are
// excluded with a warning; a table without a furnace column yields no records
// and a single warning.
func ExtractProductionRecords(t *Table) ([]domain.ProductionRecord, []domain.FileIssue) {
	dateCol := t.Column(workDateColumn...)
	weightCol := t.Column(weightColumn...)
	furnaceCol := t.Column(furnaceColumn...)

	if furnaceCol < 0 {
		return nil, []domain.FileIssue{{
			File:     t.Name,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("production file has no %q column; all %d rows were excluded", furnaceColumn[0], len(t.Rows)),
		}}
	}

	var issues []domain.FileIssue
	records := make([]domain.ProductionRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		line := i + 2
		if isBlankRow(row) {
			continue
		}

		date, err := parseTimestamp(t.Cell(row, dateCol))
		if err != nil {
			issues = append(issues, domain.FileIssue{
				File:     t.Name,
				Row:      line,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("row %d excluded: %v", line, err),
			})
			continue
		}

		weight, _ := parseNumber(t.Cell(row, weightCol))
		records = append(records, domain.ProductionRecord{
			FurnaceID: t.Cell(row, furnaceCol),
			Date:      date,
			WeightKg:  weight,
			Source:    t.Name,
			Row:       line,
		})
	}
	return records, issues
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts plain and thousands-separated finite numbers. NaN and
// infinities count as missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseTimestamp accepts the common text layouts and Excel serial dates.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range timestampLayout {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed timestamp %q", s)
}
