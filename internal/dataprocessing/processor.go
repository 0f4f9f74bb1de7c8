package dataprocessing

import (
	"log/slog"
	"sort"

	"gasrate/pkg/contracts/domain"
)

// MeterNormalizer derives per-interval and per-day consumption from a
// cumulative gas meter series.
type MeterNormalizer struct {
	spikeThreshold float64
	logger         *slog.Logger
}

// NewMeterNormalizer creates a normalizer. A non-positive threshold falls
// back to DefaultSpikeThreshold.
func NewMeterNormalizer(logger *slog.Logger, spikeThreshold float64) *MeterNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if spikeThreshold <= 0 {
		spikeThreshold = DefaultSpikeThreshold
	}
	return &MeterNormalizer{
		spikeThreshold: spikeThreshold,
		logger:         logger,
	}
}

// FillForward returns a timestamp-sorted copy of readings where every invalid
// value takes the last valid value before it. Readings before the first valid
// value stay invalid.
func (n *MeterNormalizer) FillForward(readings []domain.MeterReading) ([]domain.MeterReading, int) {
	sorted := make([]domain.MeterReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	filled := 0
	var last *domain.MeterReading
	for i := range sorted {
		if sorted[i].Valid {
			last = &sorted[i]
			continue
		}
		if last != nil {
			sorted[i].Value = last.Value
			sorted[i].Valid = true
			filled++
		}
	}
	return sorted, filled
}

// Intervals differences consecutive readings of a sorted, filled series.
// Rollbacks are clamped to zero and spikes above the threshold are zeroed.
// An interval touching an unresolved reading is zero.
func (n *MeterNormalizer) Intervals(sorted []domain.MeterReading) ([]domain.IntervalConsumption, NormalizeStats) {
	stats := NormalizeStats{Readings: len(sorted)}
	if len(sorted) == 0 {
		return nil, stats
	}

	intervals := make([]domain.IntervalConsumption, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		amount := 0.0
		if prev.Valid && curr.Valid {
			amount = curr.Value - prev.Value
			switch {
			case amount < 0:
				stats.Rollbacks++
				amount = 0
			case amount > n.spikeThreshold:
				stats.Spikes++
				amount = 0
			}
		}
		intervals = append(intervals, domain.IntervalConsumption{
			FurnaceID: curr.FurnaceID,
			Timestamp: curr.Timestamp,
			Amount:    amount,
		})
	}
	return intervals, stats
}

// Normalize runs fill, differencing and daily resampling for one furnace.
// Every day holding at least one reading yields a record; days without
// readings yield none.
func (n *MeterNormalizer) Normalize(readings []domain.MeterReading) ([]domain.DailyGas, NormalizeStats) {
	sorted, filled := n.FillForward(readings)
	intervals, stats := n.Intervals(sorted)
	stats.ForwardFills = filled
	for _, r := range sorted {
		if r.Valid {
			break
		}
		stats.Unresolved++
	}

	if len(sorted) == 0 {
		return nil, stats
	}

	furnaceID := sorted[0].FurnaceID
	sums := make(map[int64]float64)
	for _, r := range sorted {
		day := domain.CalendarDay(r.Timestamp).Unix()
		if _, ok := sums[day]; !ok {
			sums[day] = 0
		}
	}
	for _, iv := range intervals {
		sums[domain.CalendarDay(iv.Timestamp).Unix()] += iv.Amount
	}

	days := make([]int64, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	daily := make([]domain.DailyGas, 0, len(days))
	for _, day := range days {
		daily = append(daily, domain.DailyGas{
			FurnaceID: furnaceID,
			Date:      unixDay(day),
			GasAmount: sums[day],
		})
	}
	stats.Days = len(daily)

	n.logger.Debug("meter series normalized",
		slog.String("furnace_id", furnaceID),
		slog.Int("readings", stats.Readings),
		slog.Int("forward_fills", stats.ForwardFills),
		slog.Int("unresolved", stats.Unresolved),
		slog.Int("rollbacks", stats.Rollbacks),
		slog.Int("spikes", stats.Spikes),
		slog.Int("days", stats.Days))

	return daily, stats
}
