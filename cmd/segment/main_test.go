package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bankcli/internal/config"
	"bankcli/internal/exporter"
	"bankcli/internal/generator"
)

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsConfig{
		DataDir:    filepath.Join(dir, "data"),
		ReportsDir: filepath.Join(dir, "reports"),
	}
	t.Setenv("BANK_TELEMETRY_METRICS_TEXTFILE", filepath.Join(dir, "metrics.prom"))
	t.Setenv("BANK_LOGGING_LEVEL", "error")

	gcfg := config.Default().Generator
	gcfg.NumCustomers = 60
	gcfg.NumTransactions = 400
	gen, err := generator.New(gcfg, nil)
	require.NoError(t, err)
	dataset, err := gen.Generate(context.Background())
	require.NoError(t, err)
	require.NoError(t, exporter.NewDatasetExporter(exporter.NewCSVWriter(paths, nil)).Export(dataset.Customers, dataset.Transactions))

	var out bytes.Buffer
	err = run(context.Background(), []string{
		"-data", paths.DataDir,
		"-reports", paths.ReportsDir,
		"-k", "3",
		"-n-init", "3",
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Customer segments (k=3")
	for _, name := range []string{config.SegmentsFile, config.AssignmentsFile, config.InterpretFile, config.WorkbookFile} {
		_, err := os.Stat(paths.GetReportPath(name))
		assert.NoError(t, err, name)
	}

	f, err := excelize.OpenFile(paths.GetReportPath(config.WorkbookFile))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), exporter.SheetSegments)
	assert.Contains(t, f.GetSheetList(), exporter.SheetAgeGroups)

	prom, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.NotEmpty(t, prom)
}

func TestRun_InvalidK(t *testing.T) {
	err := run(context.Background(), []string{"-k", "0", "-data", t.TempDir()}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_MissingData(t *testing.T) {
	err := run(context.Background(), []string{"-data", t.TempDir(), "-reports", t.TempDir()}, &bytes.Buffer{})
	assert.Error(t, err)
}
