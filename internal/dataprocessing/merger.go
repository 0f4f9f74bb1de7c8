package dataprocessing

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"gasrate/pkg/contracts/domain"
)

// dayKey identifies one furnace on one calendar day (unix seconds at midnight UTC).
type dayKey struct {
	furnaceID string
	day       int64
}

func unixDay(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// MergeDaily outer-joins daily gas and daily weight on (furnace, date).
// The side missing for a key is zero. Keys repeated on one side are summed,
// so the result is unique per key and sorted by furnace then date.
// An empty gas series yields an empty result.
func MergeDaily(gas []domain.DailyGas, weights []domain.DailyWeight) []domain.DailyRecord {
	if len(gas) == 0 {
		return nil
	}

	index := make(map[dayKey]*domain.DailyRecord, len(gas)+len(weights))
	lookup := func(furnaceID string, date time.Time) *domain.DailyRecord {
		day := domain.CalendarDay(date)
		key := dayKey{furnaceID: furnaceID, day: day.Unix()}
		rec, ok := index[key]
		if !ok {
			rec = &domain.DailyRecord{FurnaceID: furnaceID, Date: day}
			index[key] = rec
		}
		return rec
	}

	for _, g := range gas {
		lookup(g.FurnaceID, g.Date).GasAmount += g.GasAmount
	}
	for _, w := range weights {
		lookup(w.FurnaceID, w.Date).WeightKg += w.WeightKg
	}

	keys := lo.Keys(index)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].furnaceID != keys[j].furnaceID {
			return keys[i].furnaceID < keys[j].furnaceID
		}
		return keys[i].day < keys[j].day
	})

	merged := make([]domain.DailyRecord, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, *index[key])
	}
	return merged
}
