package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "bankcli/internal/errors"
)

// DefaultTopLimit is the number of customers returned by TopCustomersBySpend when limit <= 0
const DefaultTopLimit = 10

// CustomerSpend is one row of the top spenders ranking
type CustomerSpend struct {
	CustomerID int     `json:"customer_id"`
	City       string  `json:"city"`
	TxCount    int     `json:"tx_count"`
	TotalSpend float64 `json:"total_spend"`
}

// CitySpend aggregates transactions by the customer's city
type CitySpend struct {
	City           string  `json:"city"`
	AvgTxAmount    float64 `json:"avg_tx_amount"`
	TotalCitySpend float64 `json:"total_city_spend"`
}

// MonthlySpend is the total amount spent in one calendar month
type MonthlySpend struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// CategorySpend is the total amount spent in one category
type CategorySpend struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// AgeGroupSpend is the mean transaction amount for one age band
type AgeGroupSpend struct {
	AgeGroup  string  `json:"age_group"`
	AvgAmount float64 `json:"avg_amount"`
}

// AgeGroups lists the age bands in order. Lower bounds are inclusive,
// upper bounds exclusive; ages outside [18, 100) belong to no band.
var AgeGroups = []struct {
	Label    string
	Min, Max int
}{
	{"18-25", 18, 25},
	{"26-35", 25, 35},
	{"36-50", 35, 50},
	{"51-70", 50, 70},
	{"70+", 70, 100},
}

const topCustomersQuery = `
SELECT
	c.customer_id,
	c.city,
	COUNT(t.transaction_id) AS tx_count,
	ROUND(SUM(t.amount), 2) AS total_spend
FROM customers c
JOIN transactions t ON c.customer_id = t.customer_id
GROUP BY c.customer_id
ORDER BY total_spend DESC, c.customer_id ASC
LIMIT ?`

const citySpendingQuery = `
SELECT
	c.city,
	ROUND(AVG(t.amount), 2) AS avg_tx_amount,
	ROUND(SUM(t.amount), 2) AS total_city_spend
FROM customers c
JOIN transactions t ON c.customer_id = t.customer_id
GROUP BY c.city
ORDER BY avg_tx_amount DESC, c.city ASC`

const monthlyTrendQuery = `
SELECT
	substr(transaction_date, 1, 7) AS month,
	SUM(amount) AS amount
FROM transactions
GROUP BY month
ORDER BY month ASC`

const categorySpendingQuery = `
SELECT category, SUM(amount) AS amount
FROM transactions
GROUP BY category
ORDER BY amount DESC, category ASC`

// ageGroupQuery buckets each transaction by its customer's age band index
var ageGroupQuery = buildAgeGroupQuery()

func buildAgeGroupQuery() string {
	var b strings.Builder
	b.WriteString("SELECT\n\tCASE\n")
	for i, g := range AgeGroups {
		fmt.Fprintf(&b, "\t\tWHEN c.age >= %d AND c.age < %d THEN %d\n", g.Min, g.Max, i)
	}
	b.WriteString(`	END AS age_group,
	AVG(t.amount) AS avg_amount
FROM transactions t
JOIN customers c ON c.customer_id = t.customer_id
GROUP BY age_group
HAVING age_group IS NOT NULL
ORDER BY age_group ASC`)
	return b.String()
}

// TopCustomersBySpend ranks customers by total spend, highest first
func (s *Store) TopCustomersBySpend(ctx context.Context, limit int) ([]CustomerSpend, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	var out []CustomerSpend
	err := s.query(ctx, "top_customers", topCustomersQuery, func(rows *sql.Rows) error {
		var r CustomerSpend
		if err := rows.Scan(&r.CustomerID, &r.City, &r.TxCount, &r.TotalSpend); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	}, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CitySpending averages and totals transaction amounts per city, highest average first
func (s *Store) CitySpending(ctx context.Context) ([]CitySpend, error) {
	var out []CitySpend
	err := s.query(ctx, "city_spending", citySpendingQuery, func(rows *sql.Rows) error {
		var r CitySpend
		if err := rows.Scan(&r.City, &r.AvgTxAmount, &r.TotalCitySpend); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyTrend totals spending per YYYY-MM month in calendar order
func (s *Store) MonthlyTrend(ctx context.Context) ([]MonthlySpend, error) {
	var out []MonthlySpend
	err := s.query(ctx, "monthly_trend", monthlyTrendQuery, func(rows *sql.Rows) error {
		var r MonthlySpend
		if err := rows.Scan(&r.Month, &r.Amount); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CategorySpending totals spending per category, highest first
func (s *Store) CategorySpending(ctx context.Context) ([]CategorySpend, error) {
	var out []CategorySpend
	err := s.query(ctx, "category_spending", categorySpendingQuery, func(rows *sql.Rows) error {
		var r CategorySpend
		if err := rows.Scan(&r.Category, &r.Amount); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AgeGroupSpending averages transaction amounts per age band in band order.
// Bands without transactions are omitted.
func (s *Store) AgeGroupSpending(ctx context.Context) ([]AgeGroupSpend, error) {
	var out []AgeGroupSpend
	err := s.query(ctx, "age_group_spending", ageGroupQuery, func(rows *sql.Rows) error {
		var band int
		var r AgeGroupSpend
		if err := rows.Scan(&band, &r.AvgAmount); err != nil {
			return err
		}
		r.AgeGroup = AgeGroups[band].Label
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PeakAgeGroup returns the age band with the highest mean transaction amount
func (s *Store) PeakAgeGroup(ctx context.Context) (AgeGroupSpend, error) {
	groups, err := s.AgeGroupSpending(ctx)
	if err != nil {
		return AgeGroupSpend{}, err
	}
	if len(groups) == 0 {
		return AgeGroupSpend{}, apperrors.NewNotFoundError("age group with transactions")
	}
	peak := groups[0]
	for _, g := range groups[1:] {
		if g.AvgAmount > peak.AvgAmount {
			peak = g
		}
	}
	return peak, nil
}

// Overview bundles every descriptive series for reporting
type Overview struct {
	TopCustomers []CustomerSpend `json:"top_customers"`
	Cities       []CitySpend     `json:"cities"`
	Monthly      []MonthlySpend  `json:"monthly"`
	Categories   []CategorySpend `json:"categories"`
	AgeGroups    []AgeGroupSpend `json:"age_groups"`
}

// Overview runs every query
func (s *Store) Overview(ctx context.Context, topLimit int) (*Overview, error) {
	var (
		o   Overview
		err error
	)
	if o.TopCustomers, err = s.TopCustomersBySpend(ctx, topLimit); err != nil {
		return nil, err
	}
	if o.Cities, err = s.CitySpending(ctx); err != nil {
		return nil, err
	}
	if o.Monthly, err = s.MonthlyTrend(ctx); err != nil {
		return nil, err
	}
	if o.Categories, err = s.CategorySpending(ctx); err != nil {
		return nil, err
	}
	if o.AgeGroups, err = s.AgeGroupSpending(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}
