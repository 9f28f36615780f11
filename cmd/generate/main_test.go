package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcli/internal/dataprocessing"
)

func TestRun_WritesDataset(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BANK_LOGGING_LEVEL", "error")
	xlsx := filepath.Join(dir, "dataset.xlsx")

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-customers", "25",
		"-transactions", "120",
		"-seed", "3",
		"-out", dir,
		"-xlsx", xlsx,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "wrote 25 customers")
	assert.Contains(t, out.String(), "wrote 120 transactions")

	loader := dataprocessing.NewLoader(nil)
	customers, err := loader.LoadCustomers(filepath.Join(dir, "customers.csv"))
	require.NoError(t, err)
	assert.Len(t, customers, 25)
	assert.Equal(t, 1001, customers[0].CustomerID)

	fromCSV, err := loader.LoadTransactions(filepath.Join(dir, "transactions.csv"))
	require.NoError(t, err)
	_, fromXLSX, err := loader.LoadWorkbook(xlsx)
	require.NoError(t, err)
	require.Len(t, fromXLSX, len(fromCSV))
	assert.InDelta(t, fromCSV[7].Amount, fromXLSX[7].Amount, 1e-9)
}

func TestRun_RejectsBadFlags(t *testing.T) {
	err := run(context.Background(), []string{"-customers", "-1", "-out", t.TempDir()}, &bytes.Buffer{})
	assert.Error(t, err)
}
