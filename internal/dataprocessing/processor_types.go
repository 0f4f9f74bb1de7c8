package dataprocessing

import (
	"gasrate/pkg/contracts/domain"
)

// DefaultSpikeThreshold is the largest single-interval meter difference that
// is still treated as real consumption.
const DefaultSpikeThreshold = 10000.0

// Normalizer turns one furnace's cumulative readings into daily gas sums.
type Normalizer interface {
	Normalize(readings []domain.MeterReading) ([]domain.DailyGas, NormalizeStats)
}

// ProcessingOptions configures pipeline behavior
type ProcessingOptions struct {
	// SpikeThreshold discards interval differences above this value.
	// Non-positive values fall back to DefaultSpikeThreshold.
	SpikeThreshold float64

	// MaxFiles limits how many files one run accepts (0 means no limit)
	MaxFiles int
}

// DefaultOptions returns default processing options
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		SpikeThreshold: DefaultSpikeThreshold,
		MaxFiles:       0,
	}
}

// NormalizeStats reports what the normalizer cleaned up in one series.
type NormalizeStats struct {
	Readings     int
	Unresolved   int // leading readings with no prior valid value
	ForwardFills int
	Rollbacks    int // negative differences clamped to zero
	Spikes       int // differences above the threshold discarded
	Days         int
}
