// Package shared holds code used across gasrate packages that belongs to no
// single layer.
//
// The testutil subpackage builds CSV, workbook and multipart fixtures and
// provides a buffered slog handler for asserting log output:
//
//	logger, logs := testutil.NewTestLogger(t)
//	data := testutil.CSV(t, testutil.GasHeader, []string{"2024-03-01 00:00", "100"})
//	testutil.AssertLogContains(t, logs, slog.LevelInfo, "analysis completed")
package shared
