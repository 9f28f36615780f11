package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcli/internal/config"
	apperrors "bankcli/internal/errors"
	"bankcli/internal/segmentation"
	"bankcli/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testDataset() StaticDataset {
	day := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	customers := []domain.Customer{
		{CustomerID: 1, Age: 22, Gender: domain.GenderFemale, City: "Istanbul"},
		{CustomerID: 2, Age: 33, Gender: domain.GenderMale, City: "Ankara"},
		{CustomerID: 3, Age: 47, Gender: domain.GenderFemale, City: "Izmir"},
		{CustomerID: 4, Age: 58, Gender: domain.GenderMale, City: "Istanbul"},
		{CustomerID: 5, Age: 29, Gender: domain.GenderFemale, City: "Bursa"},
		{CustomerID: 6, Age: 41, Gender: domain.GenderMale, City: "Antalya"},
	}
	amounts := map[int][]float64{
		1: {100},
		2: {110},
		3: {2500, 2500},
		4: {2600, 2600},
		5: {90},
	}
	var txs []domain.Transaction
	for id := 1; id <= 5; id++ {
		for _, a := range amounts[id] {
			txs = append(txs, domain.Transaction{
				TransactionID:   len(txs) + 1,
				CustomerID:      id,
				TransactionDate: day.AddDate(0, 0, len(txs)),
				Amount:          a,
				Category:        domain.CategoryMarket,
			})
		}
	}
	return StaticDataset{Customers: customers, Transactions: txs}
}

func newTestSegmenter(t *testing.T) *segmentation.Segmenter {
	t.Helper()
	cfg := config.Default().Segmentation
	cfg.K = 2
	cfg.NInit = 4
	seg, err := segmentation.NewSegmenter(cfg, discardLogger())
	require.NoError(t, err)
	return seg
}

func loadedService(t *testing.T) *SegmentService {
	t.Helper()
	svc := NewSegmentService(testDataset(), newTestSegmenter(t), discardLogger())
	require.NoError(t, svc.Refresh(context.Background()))
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestSegmentService_NotLoaded(t *testing.T) {
	svc := NewSegmentService(testDataset(), newTestSegmenter(t), discardLogger())
	assert.False(t, svc.Ready())

	_, err := svc.Segments(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestSegmentService_Segments(t *testing.T) {
	svc := loadedService(t)
	assert.True(t, svc.Ready())

	view, err := svc.Segments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, view.K)
	assert.Equal(t, 5, view.Segmented)
	assert.Equal(t, 1, view.Inactive)
	require.Len(t, view.Segments, 2)

	seg, err := svc.Segment(context.Background(), view.Segments[1].ClusterID)
	require.NoError(t, err)
	assert.Equal(t, view.Segments[1], *seg)

	_, err = svc.Segment(context.Background(), 99)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestSegmentService_Assignment(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	three, err := svc.Assignment(ctx, 3)
	require.NoError(t, err)
	four, err := svc.Assignment(ctx, 4)
	require.NoError(t, err)
	one, err := svc.Assignment(ctx, 1)
	require.NoError(t, err)

	require.NotNil(t, three.ClusterID)
	assert.True(t, three.Segmented)
	assert.Equal(t, *three.ClusterID, *four.ClusterID)
	assert.NotEqual(t, *one.ClusterID, *three.ClusterID)
	assert.InDelta(t, 5000.0, three.Features.TotalSpend, 1e-9)
	assert.NotEmpty(t, three.Label)

	inactive, err := svc.Assignment(ctx, 6)
	require.NoError(t, err)
	assert.False(t, inactive.Segmented)
	assert.Nil(t, inactive.ClusterID)

	_, err = svc.Assignment(ctx, 404)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestSegmentService_Analytics(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	top, err := svc.TopCustomers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 4, top[0].CustomerID)
	assert.Equal(t, 3, top[1].CustomerID)

	cities, err := svc.Cities(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cities)
}

type failingDataset struct{}

func (failingDataset) Load(context.Context) ([]domain.Customer, []domain.Transaction, error) {
	return nil, nil, errors.New("disk gone")
}

func TestSegmentService_RefreshKeepsPreviousOnFailure(t *testing.T) {
	svc := loadedService(t)
	before, err := svc.Segments(context.Background())
	require.NoError(t, err)

	svc.dataset = failingDataset{}
	assert.Error(t, svc.Refresh(context.Background()))

	after, err := svc.Segments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.LoadedAt, after.LoadedAt)
}

func TestFileDataset_Load(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsConfig{DataDir: dir, ReportsDir: filepath.Join(dir, "reports")}

	require.NoError(t, os.WriteFile(paths.CustomersPath(),
		[]byte("customer_id,age,gender,city\n1,30,F,Istanbul\n"), 0644))
	require.NoError(t, os.WriteFile(paths.TransactionsPath(),
		[]byte("transaction_id,customer_id,transaction_date,amount,category\n1,1,2023-01-02,12.50,Market\n"), 0644))

	customers, txs, err := NewFileDataset(paths, discardLogger()).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	require.Len(t, txs, 1)
	assert.InDelta(t, 12.5, txs[0].Amount, 1e-9)
}

func TestFileDataset_Missing(t *testing.T) {
	paths := config.PathsConfig{DataDir: t.TempDir()}
	_, _, err := NewFileDataset(paths, discardLogger()).Load(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestHealthService(t *testing.T) {
	hs := NewHealthService("test", NewSegmentService(testDataset(), newTestSegmenter(t), discardLogger()), discardLogger())
	assert.Equal(t, "degraded", hs.HealthCheck(context.Background()).Status)

	hs = NewHealthService("test", loadedService(t), discardLogger())
	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "ready", status.Services["segments"])
}
