package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bankcli/internal/errors"
	"bankcli/pkg/contracts/domain"
)

func date(month, day int) time.Time {
	return time.Date(2023, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func fixture() ([]domain.Customer, []domain.Transaction) {
	customers := []domain.Customer{
		{CustomerID: 1001, Age: 22, Gender: domain.GenderFemale, City: "Istanbul"},
		{CustomerID: 1002, Age: 40, Gender: domain.GenderMale, City: "Ankara"},
		{CustomerID: 1003, Age: 67, Gender: domain.GenderFemale, City: "Istanbul"},
		{CustomerID: 1004, Age: 30, Gender: domain.GenderMale, City: "Izmir"},
	}
	txs := []domain.Transaction{
		{TransactionID: 1, CustomerID: 1001, TransactionDate: date(1, 5), Amount: 100.10, Category: domain.CategoryMarket},
		{TransactionID: 2, CustomerID: 1001, TransactionDate: date(1, 20), Amount: 200.30, Category: domain.CategoryRestaurant},
		{TransactionID: 3, CustomerID: 1002, TransactionDate: date(2, 1), Amount: 3000, Category: domain.CategoryElectronic},
		{TransactionID: 4, CustomerID: 1003, TransactionDate: date(3, 15), Amount: 800, Category: domain.CategoryClothing},
		{TransactionID: 5, CustomerID: 1003, TransactionDate: date(1, 31), Amount: 600, Category: domain.CategoryFuel},
	}
	return customers, txs
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	customers, txs := fixture()
	store, err := NewStore(context.Background(), customers, txs, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTopCustomersBySpend(t *testing.T) {
	store := newTestStore(t)

	top, err := store.TopCustomersBySpend(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, []CustomerSpend{
		{CustomerID: 1002, City: "Ankara", TxCount: 1, TotalSpend: 3000},
		{CustomerID: 1003, City: "Istanbul", TxCount: 2, TotalSpend: 1400},
	}, top)

	all, err := store.TopCustomersBySpend(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "customer without transactions is not ranked")
	assert.Equal(t, 300.4, all[2].TotalSpend)
}

func TestCitySpending(t *testing.T) {
	store := newTestStore(t)

	cities, err := store.CitySpending(context.Background())
	require.NoError(t, err)

	require.Len(t, cities, 2)
	assert.Equal(t, CitySpend{City: "Ankara", AvgTxAmount: 3000, TotalCitySpend: 3000}, cities[0])
	assert.Equal(t, "Istanbul", cities[1].City)
	assert.InDelta(t, 425.1, cities[1].AvgTxAmount, 1e-9)
	assert.InDelta(t, 1700.4, cities[1].TotalCitySpend, 1e-9)
}

func TestMonthlyTrend(t *testing.T) {
	store := newTestStore(t)

	trend, err := store.MonthlyTrend(context.Background())
	require.NoError(t, err)

	require.Len(t, trend, 3)
	assert.Equal(t, "2023-01", trend[0].Month)
	assert.InDelta(t, 900.4, trend[0].Amount, 1e-9)
	assert.Equal(t, "2023-02", trend[1].Month)
	assert.Equal(t, "2023-03", trend[2].Month)
}

func TestCategorySpending(t *testing.T) {
	store := newTestStore(t)

	categories, err := store.CategorySpending(context.Background())
	require.NoError(t, err)

	require.Len(t, categories, 5)
	assert.Equal(t, "Elektronik", categories[0].Category)
	assert.Equal(t, "Market", categories[4].Category)
}

func TestAgeGroupSpending(t *testing.T) {
	store := newTestStore(t)

	groups, err := store.AgeGroupSpending(context.Background())
	require.NoError(t, err)

	// 1001 is 22, 1002 is 40, 1003 is 67; nobody in 26-35 has spent
	require.Len(t, groups, 3)
	assert.Equal(t, "18-25", groups[0].AgeGroup)
	assert.InDelta(t, 150.2, groups[0].AvgAmount, 1e-9)
	assert.Equal(t, "36-50", groups[1].AgeGroup)
	assert.Equal(t, "51-70", groups[2].AgeGroup)
	assert.InDelta(t, 700, groups[2].AvgAmount, 1e-9)

	peak, err := store.PeakAgeGroup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "36-50", peak.AgeGroup)
}

func TestAgeGroupBoundaries(t *testing.T) {
	customers := []domain.Customer{
		{CustomerID: 1, Age: 25, Gender: domain.GenderMale, City: "Bursa"},
		{CustomerID: 2, Age: 70, Gender: domain.GenderMale, City: "Bursa"},
		{CustomerID: 3, Age: 17, Gender: domain.GenderMale, City: "Bursa"},
	}
	txs := []domain.Transaction{
		{TransactionID: 1, CustomerID: 1, TransactionDate: date(5, 5), Amount: 10, Category: domain.CategoryMarket},
		{TransactionID: 2, CustomerID: 2, TransactionDate: date(5, 5), Amount: 20, Category: domain.CategoryMarket},
		{TransactionID: 3, CustomerID: 3, TransactionDate: date(5, 5), Amount: 30, Category: domain.CategoryMarket},
	}
	store, err := NewStore(context.Background(), customers, txs, nil)
	require.NoError(t, err)
	defer store.Close()

	groups, err := store.AgeGroupSpending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []AgeGroupSpend{
		{AgeGroup: "26-35", AvgAmount: 10},
		{AgeGroup: "70+", AvgAmount: 20},
	}, groups, "lower bounds are inclusive and ages under 18 fall outside every band")
}

func TestOverview(t *testing.T) {
	store := newTestStore(t)

	overview, err := store.Overview(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, overview.TopCustomers, 1)
	assert.Len(t, overview.Cities, 2)
	assert.Len(t, overview.Monthly, 3)
	assert.Len(t, overview.Categories, 5)
	assert.Len(t, overview.AgeGroups, 3)
}

func TestNewStore_DuplicateCustomer(t *testing.T) {
	customers := []domain.Customer{
		{CustomerID: 1, Age: 20, Gender: domain.GenderMale, City: "Bursa"},
		{CustomerID: 1, Age: 21, Gender: domain.GenderMale, City: "Bursa"},
	}
	_, err := NewStore(context.Background(), customers, nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestPeakAgeGroup_Empty(t *testing.T) {
	store, err := NewStore(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.PeakAgeGroup(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}
