// Package exporter renders analysis results for download.
//
// ReportExporter produces two formats:
//
//   - an Excel workbook with the sheets Daily, Weekly, Monthly and
//     Unallocated, dates formatted yyyy-mm-dd, gas and weight #,##0 and
//     specific rates 0.0
//   - CSV files, one per granularity, with thousands separators and
//     one-decimal rates, prefixed with a UTF-8 BOM so Excel opens them as
//     UTF-8
//
// Example usage:
//
//	exp := exporter.NewReportExporter(paths, logger)
//	path, err := exp.SaveWorkbook(result, "")
package exporter
