package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"mime/multipart"
	"testing"

	"github.com/xuri/excelize/v2"
)

// GasHeader and ProductionHeader are the canonical input column names.
var (
	GasHeader        = []string{"time", "cumulative_gas_reading"}
	ProductionHeader = []string{"work_date", "weight_kg", "furnace_name"}
)

// CSV renders header and rows as a UTF-8 CSV document.
func CSV(t testing.TB, header []string, rows ...[]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		t.Fatalf("write csv header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv rows: %v", err)
	}
	return buf.Bytes()
}

// Workbook renders header and rows into the first sheet of an xlsx workbook.
// Cell values are written as-is, so numbers and time.Time keep their types.
func Workbook(t testing.TB, header []string, rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	all := append([][]any{headerCells}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// GasRows builds gas CSV rows for one reading per timestamp.
func GasRows(timestamps []string, readings []string) [][]string {
	if len(timestamps) != len(readings) {
		panic(fmt.Sprintf("gas rows: %d timestamps for %d readings", len(timestamps), len(readings)))
	}
	rows := make([][]string, len(timestamps))
	for i := range timestamps {
		rows[i] = []string{timestamps[i], readings[i]}
	}
	return rows
}

// UploadFile is one file part of a multipart upload.
type UploadFile struct {
	Name string
	Data []byte
}

// Multipart builds a multipart/form-data body with the files under field and
// the given plain form values. It returns the body and its Content-Type.
func Multipart(t testing.TB, field string, files []UploadFile, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			t.Fatalf("create form file %s: %v", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			t.Fatalf("write form file %s: %v", f.Name, err)
		}
	}
	for k, v := range values {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}
