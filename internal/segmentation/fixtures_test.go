package segmentation

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"bankcli/pkg/contracts/domain"
)

var baseDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// history is one customer and the amounts they spent, in order
type history struct {
	id      int
	amounts []float64
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// buildDataset turns histories into customer and transaction records.
// Transaction ids follow input order.
func buildDataset(histories ...history) ([]domain.Customer, []domain.Transaction) {
	customers := make([]domain.Customer, 0, len(histories))
	var txs []domain.Transaction
	nextTx := 1
	for i, h := range histories {
		customers = append(customers, domain.Customer{
			CustomerID: h.id,
			Age:        30 + i,
			Gender:     domain.GenderFemale,
			City:       "Istanbul",
		})
		for j, amount := range h.amounts {
			txs = append(txs, domain.Transaction{
				TransactionID:   nextTx,
				CustomerID:      h.id,
				TransactionDate: baseDate.AddDate(0, 0, j),
				Amount:          amount,
				Category:        domain.CategoryMarket,
			})
			nextTx++
		}
	}
	return customers, txs
}

// fiveCustomers has two well separated groups: three ~100 spenders and two ~5000 spenders
func fiveCustomers() ([]domain.Customer, []domain.Transaction) {
	return buildDataset(
		history{id: 1, amounts: []float64{100}},
		history{id: 2, amounts: []float64{110}},
		history{id: 3, amounts: []float64{2500, 2500}},
		history{id: 4, amounts: []float64{2600, 2600}},
		history{id: 5, amounts: []float64{90}},
	)
}

// randomDataset draws n customers with 1..12 transactions each
func randomDataset(n int, seed uint64) ([]domain.Customer, []domain.Transaction) {
	rng := rand.New(rand.NewPCG(seed, 0))
	histories := make([]history, n)
	for i := range histories {
		count := 1 + rng.IntN(12)
		scale := 50 + rng.Float64()*3000
		amounts := make([]float64, count)
		for j := range amounts {
			amounts[j] = 10 + rng.Float64()*scale
		}
		histories[i] = history{id: 1001 + i, amounts: amounts}
	}
	return buildDataset(histories...)
}

// randomPoints draws n points in dims dimensions from three offset blobs
func randomPoints(n, dims int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, 1))
	points := make([][]float64, n)
	for i := range points {
		offset := float64(i%3) * 4
		p := make([]float64, dims)
		for d := range p {
			p[d] = offset + rng.NormFloat64()
		}
		points[i] = p
	}
	return points
}
