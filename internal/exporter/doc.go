// Package exporter writes datasets and segmentation results to disk.
//
// CSVWriter is the shared low level writer. Dataset tables (customers.csv,
// transactions.csv) land in the data directory without a BOM so they can be
// fed straight back into the loader. Reports land in the reports directory
// with a UTF-8 BOM for spreadsheet tools.
//
// DatasetExporter writes generated customers and transactions.
//
// SegmentExporter writes segments.csv, assignments.csv and the plain text
// interpretation in segments.txt.
//
// WorkbookExporter writes the same tables, plus optional analytics sheets, to a
// single XLSX workbook.
//
// Example usage:
//
//	csvWriter := exporter.NewCSVWriter(cfg.Paths, logger)
//	segments := exporter.NewSegmentExporter(csvWriter, cfg.Paths, logger)
//	if err := segments.ExportAll(result); err != nil {
//		return err
//	}
package exporter
