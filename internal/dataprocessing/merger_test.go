package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasrate/pkg/contracts/domain"
)

func TestMergeDaily(t *testing.T) {
	tests := []struct {
		name    string
		gas     []domain.DailyGas
		weights []domain.DailyWeight
		want    []domain.DailyRecord
	}{
		{
			name:    "no gas yields nothing",
			weights: []domain.DailyWeight{{FurnaceID: "F1", Date: day(t, "2024-03-01"), WeightKg: 100}},
			want:    nil,
		},
		{
			name: "outer join fills the absent side with zero",
			gas: []domain.DailyGas{
				{FurnaceID: "F1", Date: day(t, "2024-03-01"), GasAmount: 50},
				{FurnaceID: "F1", Date: day(t, "2024-03-02"), GasAmount: 30},
			},
			weights: []domain.DailyWeight{
				{FurnaceID: "F1", Date: day(t, "2024-03-02"), WeightKg: 1000},
				{FurnaceID: "F1", Date: day(t, "2024-03-03"), WeightKg: 400},
			},
			want: []domain.DailyRecord{
				{FurnaceID: "F1", Date: day(t, "2024-03-01"), GasAmount: 50, WeightKg: 0},
				{FurnaceID: "F1", Date: day(t, "2024-03-02"), GasAmount: 30, WeightKg: 1000},
				{FurnaceID: "F1", Date: day(t, "2024-03-03"), GasAmount: 0, WeightKg: 400},
			},
		},
		{
			name: "duplicate keys are summed and output is sorted",
			gas: []domain.DailyGas{
				{FurnaceID: "F2", Date: day(t, "2024-03-01"), GasAmount: 5},
				{FurnaceID: "F1", Date: day(t, "2024-03-02"), GasAmount: 10},
				{FurnaceID: "F1", Date: day(t, "2024-03-02"), GasAmount: 15},
				{FurnaceID: "F1", Date: day(t, "2024-03-01"), GasAmount: 1},
			},
			want: []domain.DailyRecord{
				{FurnaceID: "F1", Date: day(t, "2024-03-01"), GasAmount: 1},
				{FurnaceID: "F1", Date: day(t, "2024-03-02"), GasAmount: 25},
				{FurnaceID: "F2", Date: day(t, "2024-03-01"), GasAmount: 5},
			},
		},
		{
			name: "weight for a furnace without gas still appears",
			gas:  []domain.DailyGas{{FurnaceID: "F1", Date: day(t, "2024-03-01"), GasAmount: 7}},
			weights: []domain.DailyWeight{
				{FurnaceID: "F9", Date: day(t, "2024-03-01"), WeightKg: 200},
			},
			want: []domain.DailyRecord{
				{FurnaceID: "F1", Date: day(t, "2024-03-01"), GasAmount: 7},
				{FurnaceID: "F9", Date: day(t, "2024-03-01"), WeightKg: 200},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeDaily(tt.gas, tt.weights))
		})
	}
}

func TestMergeDaily_Completeness(t *testing.T) {
	gas := []domain.DailyGas{
		{FurnaceID: "A", Date: day(t, "2024-01-01"), GasAmount: 1},
		{FurnaceID: "B", Date: day(t, "2024-01-02"), GasAmount: 2},
	}
	weights := []domain.DailyWeight{
		{FurnaceID: "A", Date: day(t, "2024-01-03"), WeightKg: 3},
		{FurnaceID: "B", Date: day(t, "2024-01-02"), WeightKg: 4},
	}

	merged := MergeDaily(gas, weights)
	require.Len(t, merged, 3)

	keys := make(map[dayKey]bool)
	for _, r := range merged {
		k := dayKey{furnaceID: r.FurnaceID, day: r.Date.Unix()}
		assert.False(t, keys[k], "duplicate key %v", k)
		keys[k] = true
	}
	for _, g := range gas {
		assert.True(t, keys[dayKey{furnaceID: g.FurnaceID, day: g.Date.Unix()}])
	}
	for _, w := range weights {
		assert.True(t, keys[dayKey{furnaceID: w.FurnaceID, day: w.Date.Unix()}])
	}
}
