package exporter

import (
	"time"

	"gasrate/pkg/contracts/domain"
)

// Sheet names of the exported workbook.
const (
	SheetDaily       = "Daily"
	SheetWeekly      = "Weekly"
	SheetMonthly     = "Monthly"
	SheetUnallocated = "Unallocated"
)

type columnKind int

const (
	columnText columnKind = iota
	columnDate
	columnAmount
	columnRate
)

type column struct {
	header string
	kind   columnKind
	width  float64
}

// table is one report table before it is rendered as a sheet or a CSV file.
type table struct {
	name    string
	columns []column
	rows    [][]any
}

var (
	dailyColumns = []column{
		{header: "date", kind: columnDate, width: 12},
		{header: "furnace_id", kind: columnText, width: 14},
		{header: "gas_amount", kind: columnAmount, width: 15},
		{header: "allocated_gas", kind: columnAmount, width: 15},
		{header: "weight_kg", kind: columnAmount, width: 15},
		{header: "specific_rate", kind: columnRate, width: 14},
	}
	periodColumns = []column{
		{header: "period_start", kind: columnDate, width: 12},
		{header: "furnace_id", kind: columnText, width: 14},
		{header: "gas_amount", kind: columnAmount, width: 15},
		{header: "weight_kg", kind: columnAmount, width: 15},
		{header: "specific_rate", kind: columnRate, width: 14},
	}
	remainderColumns = []column{
		{header: "last_date", kind: columnDate, width: 12},
		{header: "furnace_id", kind: columnText, width: 14},
		{header: "unallocated_gas", kind: columnAmount, width: 16},
	}
)

func dailyTable(records []domain.AllocatedDailyRecord) table {
	t := table{name: SheetDaily, columns: dailyColumns}
	for _, r := range records {
		t.rows = append(t.rows, []any{r.Date, r.FurnaceID, r.GasAmount, r.AllocatedGas, r.WeightKg, r.SpecificRate})
	}
	return t
}

func periodTable(name string, records []domain.PeriodRecord) table {
	t := table{name: name, columns: periodColumns}
	for _, r := range records {
		t.rows = append(t.rows, []any{r.PeriodStart, r.FurnaceID, r.GasAmount, r.WeightKg, r.SpecificRate})
	}
	return t
}

func remainderTable(remainders []domain.Remainder) table {
	t := table{name: SheetUnallocated, columns: remainderColumns}
	for _, r := range remainders {
		t.rows = append(t.rows, []any{r.LastDate, r.FurnaceID, r.UnallocatedGas})
	}
	return t
}

// resultTables returns the tables of a result in workbook order.
func resultTables(result *domain.AnalysisResult) []table {
	return []table{
		dailyTable(result.Daily),
		periodTable(SheetWeekly, result.Weekly),
		periodTable(SheetMonthly, result.Monthly),
		remainderTable(result.Remainders),
	}
}

// tableFor selects the table of one granularity.
func tableFor(result *domain.AnalysisResult, g domain.Granularity) (table, bool) {
	switch g {
	case domain.GranularityDaily:
		return dailyTable(result.Daily), true
	case domain.GranularityWeekly:
		return periodTable(SheetWeekly, result.Weekly), true
	case domain.GranularityMonthly:
		return periodTable(SheetMonthly, result.Monthly), true
	}
	return table{}, false
}

// textRow renders a row the way it appears in CSV output.
func (t table) textRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch t.columns[i].kind {
		case columnDate:
			out[i] = formatDate(v.(time.Time))
		case columnAmount:
			out[i] = formatAmount(v.(float64))
		case columnRate:
			out[i] = formatRate(v.(float64))
		default:
			out[i] = v.(string)
		}
	}
	return out
}

func (t table) headers() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.header
	}
	return out
}
