// Package dataprocessing turns uploaded gas meter and production files into
// daily, weekly and monthly specific-rate tables.
//
// # Architecture
//
// The package is organized into small stages that each consume the previous
// stage's output:
//
//  1. Parser: reads .csv/.xlsx tables and detects gas or production layouts
//  2. MeterNormalizer: forward-fills, differences and resamples meter series
//  3. ProductionAggregator: sums production weight per furnace and day
//  4. MergeDaily: outer-joins daily gas and weight
//  5. Allocate: carries gas from non-production days onto the next production day
//  6. PeriodAggregator: weekly (Monday) and monthly rollups of raw gas
//
// Pipeline wires the stages together:
//
//	p := dataprocessing.NewPipeline(dataprocessing.DefaultOptions(), logger)
//	result, err := p.Run(ctx, []dataprocessing.Input{{Name: "F1_march.csv", Data: f}})
//
// # Data Flow
//
//	Files → Table → MeterReading / ProductionRecord → DailyGas / DailyWeight
//	      → DailyRecord → AllocatedDailyRecord + PeriodRecord
//
// # Error Handling
//
// Failures are isolated per file and per row. A file that cannot be read is
// reported in its FileReport and skipped; rows that cannot be used are
// excluded with a warning. A run without any gas data is not an error: the
// result is flagged NothingToAnalyze.
//
// All stages after parsing are pure functions of their input, so the same
// file set always produces the same tables.
package dataprocessing
