package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Well-known file names under the data and reports directories
const (
	CustomersFile    = "customers.csv"
	TransactionsFile = "transactions.csv"
	SegmentsFile     = "segments.csv"
	AssignmentsFile  = "assignments.csv"
	WorkbookFile     = "segmentation.xlsx"
	InterpretFile    = "segments.txt"
	MetricsFile      = "segmentation.prom"
)

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// CustomersPath returns the customers table location
func (p PathsConfig) CustomersPath() string {
	return filepath.Join(p.DataDir, CustomersFile)
}

// TransactionsPath returns the transactions table location
func (p PathsConfig) TransactionsPath() string {
	return filepath.Join(p.DataDir, TransactionsFile)
}

// GetReportPath returns the full path for a report file
func (p PathsConfig) GetReportPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.ReportsDir, filename)
}

// EnsureDirectories creates the data, reports and logs directories
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
