package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"gasrate/pkg/contracts/domain"
)

// ProductionAggregator sums raw production records into daily weights.
type ProductionAggregator struct {
	logger *slog.Logger
}

// NewProductionAggregator creates a new production aggregator
func NewProductionAggregator(logger *slog.Logger) *ProductionAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductionAggregator{logger: logger}
}

// Aggregate group-sums records by (furnace, date). Records without a furnace
// id are excluded and returned as warnings keyed to their source file.
func (a *ProductionAggregator) Aggregate(records []domain.ProductionRecord) ([]domain.DailyWeight, []domain.FileIssue) {
	var issues []domain.FileIssue

	valid := lo.Filter(records, func(r domain.ProductionRecord, _ int) bool {
		if strings.TrimSpace(r.FurnaceID) != "" {
			return true
		}
		issues = append(issues, domain.FileIssue{
			File:     r.Source,
			Row:      r.Row,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("production row %d has no furnace name and was excluded", r.Row),
		})
		return false
	})

	grouped := lo.GroupBy(valid, func(r domain.ProductionRecord) dayKey {
		return dayKey{furnaceID: strings.TrimSpace(r.FurnaceID), day: domain.CalendarDay(r.Date).Unix()}
	})

	weights := make([]domain.DailyWeight, 0, len(grouped))
	for key, group := range grouped {
		total := lo.SumBy(group, func(r domain.ProductionRecord) float64 { return r.WeightKg })
		weights = append(weights, domain.DailyWeight{
			FurnaceID: key.furnaceID,
			Date:      unixDay(key.day),
			WeightKg:  total,
		})
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].FurnaceID != weights[j].FurnaceID {
			return weights[i].FurnaceID < weights[j].FurnaceID
		}
		return weights[i].Date.Before(weights[j].Date)
	})

	a.logger.Debug("production aggregated",
		slog.Int("records", len(records)),
		slog.Int("excluded", len(records)-len(valid)),
		slog.Int("daily_weights", len(weights)))

	return weights, issues
}
