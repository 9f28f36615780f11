package exporter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"bankcli/internal/config"
	"bankcli/internal/segmentation"
)

var (
	segmentHeaders    = []string{"cluster_id", "count", "share", "mean_total_spend", "mean_avg_spend", "mean_tx_count", "label"}
	assignmentHeaders = []string{"customer_id", "cluster_id", "total_spend", "avg_spend", "tx_count"}
)

// SegmentExporter writes segmentation results as CSV and plain text
type SegmentExporter struct {
	csvWriter *CSVWriter
	paths     config.PathsConfig
	logger    *slog.Logger
}

// NewSegmentExporter creates a segment exporter
func NewSegmentExporter(csvWriter *CSVWriter, paths config.PathsConfig, logger *slog.Logger) *SegmentExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SegmentExporter{
		csvWriter: csvWriter,
		paths:     paths,
		logger:    logger,
	}
}

// SegmentRecords converts segments into CSV rows in cluster order
func SegmentRecords(segments []segmentation.Segment) [][]string {
	records := make([][]string, len(segments))
	for i, s := range segments {
		records[i] = []string{
			formatInt(s.ClusterID),
			formatInt(s.Count),
			formatMean(s.Share),
			formatMean(s.MeanTotalSpend),
			formatMean(s.MeanAvgSpend),
			formatMean(s.MeanTxCount),
			s.Label,
		}
	}
	return records
}

// AssignmentRecords converts per-customer assignments into CSV rows ordered by customer_id
func AssignmentRecords(result *segmentation.Result) [][]string {
	records := make([][]string, len(result.Features))
	for i, f := range result.Features {
		records[i] = []string{
			formatInt(f.CustomerID),
			formatInt(result.Model.Assignments[i]),
			formatAmount(f.TotalSpend),
			formatAmount(f.AvgSpend),
			formatInt(f.TxCount),
		}
	}
	return records
}

// ExportSegments writes segments.csv
func (e *SegmentExporter) ExportSegments(segments []segmentation.Segment) error {
	if err := e.csvWriter.WriteReportCSV(config.SegmentsFile, segmentHeaders, SegmentRecords(segments)); err != nil {
		return fmt.Errorf("export segments: %w", err)
	}
	return nil
}

// ExportAssignments writes assignments.csv
func (e *SegmentExporter) ExportAssignments(result *segmentation.Result) error {
	if err := e.csvWriter.WriteReportCSV(config.AssignmentsFile, assignmentHeaders, AssignmentRecords(result)); err != nil {
		return fmt.Errorf("export assignments: %w", err)
	}
	return nil
}

// WriteInterpretation renders the human readable segment summary
func WriteInterpretation(w io.Writer, result *segmentation.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Customer segments (k=%d, inertia %.4f, best of %d restarts)\n",
		result.Model.K, result.Model.Inertia, len(result.Model.Restarts))
	for _, s := range result.Segments {
		fmt.Fprintf(bw, "%s [%s of segmented customers]\n", s.Describe(), formatShare(s.Share))
	}

	if degenerate := result.Scaler.Degenerate(); len(degenerate) > 0 {
		fmt.Fprintf(bw, "Constant features standardized to 0: %v\n", degenerate)
	}
	if len(result.Inactive) > 0 {
		fmt.Fprintf(bw, "%d customers without transactions were not segmented\n", len(result.Inactive))
	}
	if result.DroppedOrphans > 0 {
		fmt.Fprintf(bw, "%d transactions for unknown customers were dropped\n", result.DroppedOrphans)
	}

	return bw.Flush()
}

// ExportInterpretation writes segments.txt under the reports directory
func (e *SegmentExporter) ExportInterpretation(result *segmentation.Result) error {
	path := e.paths.GetReportPath(config.InterpretFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteInterpretation(file, result); err != nil {
		return fmt.Errorf("write interpretation: %w", err)
	}

	e.logger.Info("Segment interpretation written", slog.String("file", path))
	return file.Close()
}

// ExportAll writes segments.csv, assignments.csv and segments.txt
func (e *SegmentExporter) ExportAll(result *segmentation.Result) error {
	if err := e.ExportSegments(result.Segments); err != nil {
		return err
	}
	if err := e.ExportAssignments(result); err != nil {
		return err
	}
	return e.ExportInterpretation(result)
}
