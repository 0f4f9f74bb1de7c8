package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"gasrate/pkg/contracts/domain"
)

// WeekStart returns the Monday starting the week that contains t.
func WeekStart(t time.Time) time.Time {
	day := domain.CalendarDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of the calendar month that contains t.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// PeriodAggregator rolls daily rows into weekly or monthly sums.
type PeriodAggregator struct {
	granularity domain.Granularity
	bucket      func(time.Time) time.Time
}

// NewPeriodAggregator creates an aggregator for weekly or monthly rollups.
func NewPeriodAggregator(granularity domain.Granularity) (*PeriodAggregator, error) {
	switch granularity {
	case domain.GranularityWeekly:
		return &PeriodAggregator{granularity: granularity, bucket: WeekStart}, nil
	case domain.GranularityMonthly:
		return &PeriodAggregator{granularity: granularity, bucket: MonthStart}, nil
	default:
		return nil, fmt.Errorf("unsupported period granularity: %q", granularity)
	}
}

// Aggregate sums raw (non-allocated) gas and weight per furnace and period and
// recomputes the specific rate from the sums. Output is sorted by furnace then
// period start.
func (p *PeriodAggregator) Aggregate(records []domain.DailyRecord) []domain.PeriodRecord {
	index := make(map[dayKey]*domain.PeriodRecord)
	for _, rec := range records {
		start := p.bucket(rec.Date)
		key := dayKey{furnaceID: rec.FurnaceID, day: start.Unix()}
		period, ok := index[key]
		if !ok {
			period = &domain.PeriodRecord{
				FurnaceID:   rec.FurnaceID,
				PeriodStart: start,
				Granularity: p.granularity,
			}
			index[key] = period
		}
		period.GasAmount += rec.GasAmount
		period.WeightKg += rec.WeightKg
	}

	periods := make([]domain.PeriodRecord, 0, len(index))
	for _, period := range index {
		period.SpecificRate = domain.SpecificRate(period.GasAmount, period.WeightKg)
		periods = append(periods, *period)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].FurnaceID != periods[j].FurnaceID {
			return periods[i].FurnaceID < periods[j].FurnaceID
		}
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})
	return periods
}
