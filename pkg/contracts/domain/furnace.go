package domain

import (
	"time"
)

// DateLayout is the canonical calendar-day layout used across reports.
const DateLayout = "2006-01-02"

// MeterReading is a single cumulative gas-meter reading for one furnace.
// Valid is false when the source cell was missing or non-numeric.
type MeterReading struct {
	FurnaceID string    `json:"furnace_id" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Value     float64   `json:"value"`
	Valid     bool      `json:"valid"`
}

// IntervalConsumption is the gas consumed between two consecutive readings,
// attributed to the timestamp of the later reading.
type IntervalConsumption struct {
	FurnaceID string    `json:"furnace_id"`
	Timestamp time.Time `json:"timestamp"`
	Amount    float64   `json:"amount" validate:"min=0"`
}

// DailyGas is the gas consumed by a furnace within one calendar day.
type DailyGas struct {
	FurnaceID string    `json:"furnace_id"`
	Date      time.Time `json:"date"`
	GasAmount float64   `json:"gas_amount" validate:"min=0"`
}

// ProductionRecord is one raw production entry as read from a production sheet.
type ProductionRecord struct {
	FurnaceID string    `json:"furnace_id"`
	Date      time.Time `json:"date"`
	WeightKg  float64   `json:"weight_kg"`
	Source    string    `json:"source"`
	Row       int       `json:"row"`
}

// DailyWeight is the total production weight of a furnace within one calendar day.
type DailyWeight struct {
	FurnaceID string    `json:"furnace_id"`
	Date      time.Time `json:"date"`
	WeightKg  float64   `json:"weight_kg" validate:"min=0"`
}

// DailyRecord joins gas and weight for one (furnace, date) key.
type DailyRecord struct {
	FurnaceID string    `json:"furnace_id"`
	Date      time.Time `json:"date"`
	GasAmount float64   `json:"gas_amount"`
	WeightKg  float64   `json:"weight_kg"`
}

// AllocatedDailyRecord is a DailyRecord with carry-forward adjusted gas.
type AllocatedDailyRecord struct {
	DailyRecord
	AllocatedGas float64 `json:"allocated_gas"`
	SpecificRate float64 `json:"specific_rate"`
}

// Granularity names a reporting horizon.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// PeriodRecord is a weekly or monthly rollup for one furnace.
type PeriodRecord struct {
	FurnaceID    string      `json:"furnace_id"`
	PeriodStart  time.Time   `json:"period_start"`
	Granularity  Granularity `json:"granularity"`
	GasAmount    float64     `json:"gas_amount"`
	WeightKg     float64     `json:"weight_kg"`
	SpecificRate float64     `json:"specific_rate"`
}

// Remainder is gas pooled after a furnace's last production day that no
// day in the observed range absorbed.
type Remainder struct {
	FurnaceID      string    `json:"furnace_id"`
	LastDate       time.Time `json:"last_date"`
	UnallocatedGas float64   `json:"unallocated_gas"`
}

// SpecificRate returns gas volume per metric ton, or 0 when nothing was produced.
func SpecificRate(gas, weightKg float64) float64 {
	if weightKg > 0 {
		return gas / (weightKg / 1000)
	}
	return 0
}

// CalendarDay truncates t to midnight UTC of its wall-clock date.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
