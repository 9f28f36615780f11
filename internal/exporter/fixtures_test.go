package exporter

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bankcli/internal/config"
	"bankcli/internal/segmentation"
	"bankcli/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testPaths(t *testing.T) config.PathsConfig {
	t.Helper()
	dir := t.TempDir()
	return config.PathsConfig{
		DataDir:    filepath.Join(dir, "data"),
		ReportsDir: filepath.Join(dir, "reports"),
		LogsDir:    filepath.Join(dir, "logs"),
	}
}

// sampleDataset has three small spenders, two large spenders and one
// customer without transactions
func sampleDataset() ([]domain.Customer, []domain.Transaction) {
	day := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	customers := []domain.Customer{
		{CustomerID: 1, Age: 25, Gender: domain.GenderFemale, City: "Istanbul"},
		{CustomerID: 2, Age: 31, Gender: domain.GenderMale, City: "Ankara"},
		{CustomerID: 3, Age: 44, Gender: domain.GenderFemale, City: "Izmir"},
		{CustomerID: 4, Age: 52, Gender: domain.GenderMale, City: "Istanbul"},
		{CustomerID: 5, Age: 38, Gender: domain.GenderFemale, City: "Bursa"},
		{CustomerID: 6, Age: 60, Gender: domain.GenderMale, City: "Antalya"},
	}
	amounts := []struct {
		customer int
		amount   float64
		category domain.Category
	}{
		{1, 100, domain.CategoryMarket},
		{2, 110, domain.CategoryRestaurant},
		{3, 2500, domain.CategoryElectronic},
		{3, 2500, domain.CategoryClothing},
		{4, 2600, domain.CategoryElectronic},
		{4, 2600, domain.CategoryFuel},
		{5, 90, domain.CategoryMarket},
	}
	txs := make([]domain.Transaction, len(amounts))
	for i, a := range amounts {
		txs[i] = domain.Transaction{
			TransactionID:   i + 1,
			CustomerID:      a.customer,
			TransactionDate: day.AddDate(0, 0, i),
			Amount:          a.amount,
			Category:        a.category,
		}
	}
	return customers, txs
}

func sampleResult(t *testing.T) *segmentation.Result {
	t.Helper()
	customers, txs := sampleDataset()
	segmenter, err := segmentation.NewSegmenter(config.SegmentationConfig{
		K:            2,
		NInit:        5,
		MaxIter:      100,
		RandomSeed:   7,
		Workers:      1,
		OrphanPolicy: "reject",
	}, discardLogger())
	require.NoError(t, err)

	result, err := segmenter.Run(context.Background(), customers, txs)
	require.NoError(t, err)
	require.Len(t, result.Segments, 2)
	return result
}
