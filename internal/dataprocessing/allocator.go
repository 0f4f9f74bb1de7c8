package dataprocessing

import (
	"sort"

	"gasrate/pkg/contracts/domain"
)

// CarryForward is one step of the allocation scan. Gas accumulates until a
// day with production, which absorbs everything pooled so far.
func CarryForward(acc float64, rec domain.DailyRecord) (next float64, allocated float64) {
	acc += rec.GasAmount
	if rec.WeightKg > 0 {
		return 0, acc
	}
	return acc, 0
}

// Allocate applies CarryForward over each furnace's date-ordered rows.
// Furnaces never share an accumulator. Gas still pooled after a furnace's
// last row is not attributed to any day; it is returned as a Remainder
// when positive.
func Allocate(records []domain.DailyRecord) ([]domain.AllocatedDailyRecord, []domain.Remainder) {
	if len(records) == 0 {
		return nil, nil
	}

	sorted := make([]domain.DailyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FurnaceID != sorted[j].FurnaceID {
			return sorted[i].FurnaceID < sorted[j].FurnaceID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	allocated := make([]domain.AllocatedDailyRecord, 0, len(sorted))
	var remainders []domain.Remainder

	acc := 0.0
	for i, rec := range sorted {
		var gas float64
		acc, gas = CarryForward(acc, rec)
		allocated = append(allocated, domain.AllocatedDailyRecord{
			DailyRecord:  rec,
			AllocatedGas: gas,
			SpecificRate: domain.SpecificRate(gas, rec.WeightKg),
		})

		lastOfFurnace := i == len(sorted)-1 || sorted[i+1].FurnaceID != rec.FurnaceID
		if lastOfFurnace {
			if acc > 0 {
				remainders = append(remainders, domain.Remainder{
					FurnaceID:      rec.FurnaceID,
					LastDate:       rec.Date,
					UnallocatedGas: acc,
				})
			}
			acc = 0
		}
	}

	return allocated, remainders
}
