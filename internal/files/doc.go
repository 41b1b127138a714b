// Package files manages the dataset and export directories.
//
// Discovery lists the dataset files (.xlsx, .xlsm, .csv) found in the data
// directory, newest first. Manager stores uploaded datasets in the data
// directory and writes exports to the export directory. Every write goes
// to a temporary file in the target directory and is renamed into place,
// so a reader never observes a partial file.
//
//	discovery := files.NewDiscovery(cfg.Paths.DataDir)
//	datasets, err := discovery.FindDatasets()
//
//	manager := files.NewManager(cfg.Paths, validator, logger)
//	info, err := manager.SaveUpload("sales.xlsx", body)
package files
