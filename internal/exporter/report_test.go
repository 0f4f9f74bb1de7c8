package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gasrate/internal/config"
	"gasrate/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult() *domain.AnalysisResult {
	daily := func(d int, gas, allocated, weight, rate float64) domain.AllocatedDailyRecord {
		return domain.AllocatedDailyRecord{
			DailyRecord:  domain.DailyRecord{FurnaceID: "F1", Date: date(2024, 3, d), GasAmount: gas, WeightKg: weight},
			AllocatedGas: allocated,
			SpecificRate: rate,
		}
	}

	return &domain.AnalysisResult{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		Daily: []domain.AllocatedDailyRecord{
			daily(1, 50, 0, 0, 0),
			daily(2, 30, 0, 0, 0),
			daily(3, 20, 100, 1000, 100),
			daily(4, 1500, 0, 0, 0),
		},
		Weekly: []domain.PeriodRecord{
			{FurnaceID: "F1", PeriodStart: date(2024, 2, 26), Granularity: domain.GranularityWeekly, GasAmount: 100, WeightKg: 1000, SpecificRate: 100},
			{FurnaceID: "F1", PeriodStart: date(2024, 3, 4), Granularity: domain.GranularityWeekly, GasAmount: 1500},
		},
		Monthly: []domain.PeriodRecord{
			{FurnaceID: "F1", PeriodStart: date(2024, 3, 1), Granularity: domain.GranularityMonthly, GasAmount: 1600, WeightKg: 1000, SpecificRate: 1600},
		},
		Remainders: []domain.Remainder{{FurnaceID: "F1", LastDate: date(2024, 3, 4), UnallocatedGas: 1500}},
	}
}

func newTestExporter(t *testing.T) (*ReportExporter, *config.Paths) {
	t.Helper()
	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return NewReportExporter(paths, nil), paths
}

func TestReportExporter_WriteWorkbook(t *testing.T) {
	exp, _ := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, exp.WriteWorkbook(&buf, sampleResult()))

	f, err := excelize.OpenReader(&buf, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetDaily, SheetWeekly, SheetMonthly, SheetUnallocated}, f.GetSheetList())

	rows, err := f.GetRows(SheetDaily)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"date", "furnace_id", "gas_amount", "allocated_gas", "weight_kg", "specific_rate"}, rows[0])
	// 2024-03-03 as an Excel serial date
	assert.Equal(t, []string{"45354", "F1", "20", "100", "1000", "100"}, rows[3])

	rows, err = f.GetRows(SheetWeekly)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "period_start", rows[0][0])

	rows, err = f.GetRows(SheetUnallocated)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"45355", "F1", "1500"}, rows[1])

	for _, cell := range []string{"A2", "C2", "F2"} {
		style, err := f.GetCellStyle(SheetDaily, cell)
		require.NoError(t, err)
		assert.NotZero(t, style, "cell %s has no number format", cell)
	}
}

func TestReportExporter_WriteWorkbook_Empty(t *testing.T) {
	exp, _ := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, exp.WriteWorkbook(&buf, &domain.AnalysisResult{NothingToAnalyze: true}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetMonthly)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReportExporter_WriteCSV(t *testing.T) {
	exp, _ := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, exp.WriteCSV(&buf, sampleResult(), domain.GranularityDaily))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"2024-03-03", "F1", "20", "100", "1,000", "100.0"}, records[3])
	assert.Equal(t, []string{"2024-03-04", "F1", "1,500", "0", "0", "0.0"}, records[4])

	buf.Reset()
	require.NoError(t, exp.WriteCSV(&buf, sampleResult(), domain.GranularityMonthly))
	records, err = csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "F1", "1,600", "1,000", "1,600.0"}, records[1])

	assert.Error(t, exp.WriteCSV(&buf, sampleResult(), domain.Granularity("hourly")))
}

func TestReportExporter_SaveWorkbook(t *testing.T) {
	exp, paths := newTestExporter(t)

	path, err := exp.SaveWorkbook(sampleResult(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "gasrate-20240401-0900.xlsx"), path)
	assert.FileExists(t, path)

	explicit := filepath.Join(t.TempDir(), "out", "report.xlsx")
	path, err = exp.SaveWorkbook(sampleResult(), explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.FileExists(t, explicit)

	_, err = NewReportExporter(nil, nil).SaveWorkbook(sampleResult(), "")
	assert.Error(t, err)
}

func TestReportExporter_SaveCSV(t *testing.T) {
	exp, paths := newTestExporter(t)

	written, err := exp.SaveCSV(sampleResult(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(paths.ReportsDir, "gasrate-20240401-0900-daily.csv"),
		filepath.Join(paths.ReportsDir, "gasrate-20240401-0900-weekly.csv"),
		filepath.Join(paths.ReportsDir, "gasrate-20240401-0900-monthly.csv"),
	}, written)

	content, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Contains(t, string(content), "period_start,furnace_id,gas_amount,weight_kg,specific_rate")

	dir := t.TempDir()
	written, err = exp.SaveCSV(sampleResult(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(written[0]))
}
