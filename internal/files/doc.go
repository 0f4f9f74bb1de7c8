// Package files finds and loads analysis input files on disk.
//
// Discovery lists gas-meter and production files (.csv, .xlsx, .xlsm) in a
// directory. Manager resolves paths against the configured layout and reads
// the discovered files into pipeline inputs:
//
//	manager := files.NewManager(paths, logger)
//	inputs, err := manager.LoadInputs(ctx, "march", cfg.Analysis.MaxFiles)
package files
