package dataprocessing

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasrate/internal/shared/testutil"
	"gasrate/pkg/contracts/domain"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return parsed
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return parsed
}

func reading(t *testing.T, at string, value float64) domain.MeterReading {
	return domain.MeterReading{FurnaceID: "F1", Timestamp: ts(t, at), Value: value, Valid: true}
}

func missing(t *testing.T, at string) domain.MeterReading {
	return domain.MeterReading{FurnaceID: "F1", Timestamp: ts(t, at)}
}

func amounts(intervals []domain.IntervalConsumption) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		out[i] = iv.Amount
	}
	return out
}

func TestNewMeterNormalizer(t *testing.T) {
	tests := []struct {
		name      string
		logger    *slog.Logger
		threshold float64
		want      float64
	}{
		{name: "explicit threshold", logger: slog.Default(), threshold: 500, want: 500},
		{name: "zero falls back to default", logger: slog.Default(), threshold: 0, want: DefaultSpikeThreshold},
		{name: "negative falls back to default", logger: nil, threshold: -1, want: DefaultSpikeThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewMeterNormalizer(tt.logger, tt.threshold)
			require.NotNil(t, n)
			assert.Equal(t, tt.want, n.spikeThreshold)
			assert.NotNil(t, n.logger)
		})
	}
}

func TestMeterNormalizer_Intervals(t *testing.T) {
	n := NewMeterNormalizer(nil, DefaultSpikeThreshold)

	tests := []struct {
		name      string
		readings  []domain.MeterReading
		want      []float64
		rollbacks int
		spikes    int
	}{
		{
			name: "rollback is clamped to zero",
			readings: []domain.MeterReading{
				reading(t, "2024-03-01 00:00", 100),
				reading(t, "2024-03-01 01:00", 90),
				reading(t, "2024-03-01 02:00", 150),
			},
			want:      []float64{0, 60},
			rollbacks: 1,
		},
		{
			name: "spike above threshold is discarded not capped",
			readings: []domain.MeterReading{
				reading(t, "2024-03-01 00:00", 1000),
				reading(t, "2024-03-01 01:00", 16000),
				reading(t, "2024-03-01 02:00", 16050),
			},
			want:   []float64{0, 50},
			spikes: 1,
		},
		{
			name: "difference equal to threshold is kept",
			readings: []domain.MeterReading{
				reading(t, "2024-03-01 00:00", 0),
				reading(t, "2024-03-01 01:00", 10000),
			},
			want: []float64{10000},
		},
		{
			name:     "single reading has no interval",
			readings: []domain.MeterReading{reading(t, "2024-03-01 00:00", 5)},
			want:     []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intervals, stats := n.Intervals(tt.readings)
			assert.Equal(t, tt.want, amounts(intervals))
			assert.Equal(t, tt.rollbacks, stats.Rollbacks)
			assert.Equal(t, tt.spikes, stats.Spikes)
			for _, iv := range intervals {
				assert.GreaterOrEqual(t, iv.Amount, 0.0)
			}
		})
	}
}

func TestMeterNormalizer_FillForward(t *testing.T) {
	n := NewMeterNormalizer(nil, 0)

	t.Run("fills from last valid value after sorting", func(t *testing.T) {
		filled, count := n.FillForward([]domain.MeterReading{
			missing(t, "2024-03-01 02:00"),
			reading(t, "2024-03-01 01:00", 120),
			reading(t, "2024-03-01 03:00", 140),
		})
		require.Len(t, filled, 3)
		assert.Equal(t, 1, count)
		assert.Equal(t, 120.0, filled[1].Value)
		assert.True(t, filled[1].Valid)
	})

	t.Run("leading missing values stay unresolved", func(t *testing.T) {
		filled, count := n.FillForward([]domain.MeterReading{
			missing(t, "2024-03-01 00:00"),
			missing(t, "2024-03-01 01:00"),
			reading(t, "2024-03-01 02:00", 100),
		})
		assert.Equal(t, 0, count)
		assert.False(t, filled[0].Valid)
		assert.False(t, filled[1].Valid)
		assert.True(t, filled[2].Valid)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		in := []domain.MeterReading{
			reading(t, "2024-03-01 02:00", 2),
			reading(t, "2024-03-01 01:00", 1),
		}
		_, _ = n.FillForward(in)
		assert.Equal(t, 2.0, in[0].Value)
	})
}

func TestMeterNormalizer_Normalize(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	n := NewMeterNormalizer(logger, DefaultSpikeThreshold)

	t.Run("daily sums attribute intervals to the later reading", func(t *testing.T) {
		daily, stats := n.Normalize([]domain.MeterReading{
			reading(t, "2024-03-02 06:00", 260),
			reading(t, "2024-03-01 00:00", 100),
			reading(t, "2024-03-01 12:00", 150),
			reading(t, "2024-03-01 23:00", 200),
		})

		require.Len(t, daily, 2)
		assert.Equal(t, day(t, "2024-03-01"), daily[0].Date)
		assert.Equal(t, 100.0, daily[0].GasAmount)
		assert.Equal(t, day(t, "2024-03-02"), daily[1].Date)
		assert.Equal(t, 60.0, daily[1].GasAmount)
		assert.Equal(t, "F1", daily[0].FurnaceID)
		assert.Equal(t, 2, stats.Days)
	})

	t.Run("days without readings yield no record", func(t *testing.T) {
		daily, _ := n.Normalize([]domain.MeterReading{
			reading(t, "2024-03-01 00:00", 100),
			reading(t, "2024-03-04 00:00", 130),
		})

		require.Len(t, daily, 2)
		assert.Equal(t, day(t, "2024-03-01"), daily[0].Date)
		assert.Equal(t, 0.0, daily[0].GasAmount)
		assert.Equal(t, day(t, "2024-03-04"), daily[1].Date)
		assert.Equal(t, 30.0, daily[1].GasAmount)
	})

	t.Run("unresolved leading readings contribute zero", func(t *testing.T) {
		daily, stats := n.Normalize([]domain.MeterReading{
			missing(t, "2024-03-01 00:00"),
			reading(t, "2024-03-01 01:00", 500),
			missing(t, "2024-03-01 02:00"),
			reading(t, "2024-03-01 03:00", 520),
		})

		require.Len(t, daily, 1)
		assert.Equal(t, 20.0, daily[0].GasAmount)
		assert.Equal(t, 1, stats.Unresolved)
		assert.Equal(t, 1, stats.ForwardFills)
	})

	t.Run("empty input", func(t *testing.T) {
		daily, stats := n.Normalize(nil)
		assert.Empty(t, daily)
		assert.Equal(t, 0, stats.Days)
	})

	testutil.AssertLogContains(t, handler, slog.LevelDebug, "meter series normalized")
	testutil.AssertLogAttr(t, handler, "furnace_id", "F1")
}
