package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"bankcli/internal/config"
	apperrors "bankcli/internal/errors"
	"bankcli/internal/infrastructure"
	"bankcli/pkg/contracts/domain"
)

// Age range drawn uniformly, upper bound exclusive
const (
	MinAge = 18
	MaxAge = 70
)

// MinAmount is the floor applied to every drawn amount
const MinAmount = 10.0

// PCG stream ids, one per generated table, so changing the transaction count
// never reshuffles the customers.
const (
	customerStream    = 1
	transactionStream = 2
)

// CityWeight is the probability of a customer living in City
type CityWeight struct {
	City   string
	Weight float64
}

// Cities is the weighted city distribution. Istanbul is the densest.
var Cities = []CityWeight{
	{City: "Istanbul", Weight: 0.40},
	{City: "Ankara", Weight: 0.20},
	{City: "Izmir", Weight: 0.15},
	{City: "Bursa", Weight: 0.15},
	{City: "Antalya", Weight: 0.10},
}

// Profile is the normal distribution of amounts spent in a category
type Profile struct {
	Mean   float64
	StdDev float64
}

// Profiles maps each category to its spending profile
var Profiles = map[domain.Category]Profile{
	domain.CategoryElectronic: {Mean: 3000, StdDev: 1000},
	domain.CategoryClothing:   {Mean: 800, StdDev: 300},
	domain.CategoryMarket:     {Mean: 300, StdDev: 100},
	domain.CategoryFuel:       {Mean: 600, StdDev: 100},
	domain.CategoryRestaurant: {Mean: 250, StdDev: 80},
}

// Dataset is a generated set of customers and their transactions
type Dataset struct {
	Customers    []domain.Customer
	Transactions []domain.Transaction
}

// Generator produces reproducible synthetic banking data
type Generator struct {
	cfg    config.GeneratorConfig
	start  time.Time
	logger *slog.Logger
}

// New validates cfg and creates a generator
func New(cfg config.GeneratorConfig, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, infrastructure.ComponentGenerator)

	start, err := time.Parse(domain.DateLayout, cfg.StartDate)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid start date %q", cfg.StartDate), err)
	}

	switch {
	case cfg.NumCustomers < 1:
		return nil, apperrors.NewConfigError("num_customers must be at least 1", nil)
	case cfg.NumTransactions < 0:
		return nil, apperrors.NewConfigError("num_transactions must not be negative", nil)
	case cfg.DaySpan < 1:
		return nil, apperrors.NewConfigError("day_span must be at least 1", nil)
	case cfg.FirstCustomerID < 1:
		return nil, apperrors.NewConfigError("first_customer_id must be positive", nil)
	}

	return &Generator{
		cfg:    cfg,
		start:  start,
		logger: logger,
	}, nil
}

// Generate draws the customers first, then the transactions. The same
// configuration always yields the same dataset.
func (g *Generator) Generate(ctx context.Context) (*Dataset, error) {
	startTime := time.Now()

	customers := g.customers()

	transactions, err := g.transactions(ctx, customers)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "synthetic data generated",
		slog.Int("customers", len(customers)),
		slog.Int("transactions", len(transactions)),
		slog.Int64("seed", g.cfg.Seed),
		slog.Duration("duration", time.Since(startTime)))

	return &Dataset{
		Customers:    customers,
		Transactions: transactions,
	}, nil
}

func (g *Generator) customers() []domain.Customer {
	rng := rand.New(rand.NewPCG(uint64(g.cfg.Seed), customerStream))

	customers := make([]domain.Customer, g.cfg.NumCustomers)
	for i := range customers {
		customers[i] = domain.Customer{
			CustomerID: g.cfg.FirstCustomerID + i,
			Age:        MinAge + rng.IntN(MaxAge-MinAge),
			Gender:     domain.Genders[rng.IntN(len(domain.Genders))],
			City:       pickCity(rng),
		}
	}
	return customers
}

func (g *Generator) transactions(ctx context.Context, customers []domain.Customer) ([]domain.Transaction, error) {
	rng := rand.New(rand.NewPCG(uint64(g.cfg.Seed), transactionStream))

	transactions := make([]domain.Transaction, g.cfg.NumTransactions)
	for i := range transactions {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("generate transactions: %w", err)
			}
		}

		customer := customers[rng.IntN(len(customers))]
		date := g.start.AddDate(0, 0, rng.IntN(g.cfg.DaySpan))
		category := domain.Categories[rng.IntN(len(domain.Categories))]

		transactions[i] = domain.Transaction{
			TransactionID:   i + 1,
			CustomerID:      customer.CustomerID,
			TransactionDate: date,
			Amount:          drawAmount(rng, Profiles[category]),
			Category:        category,
		}
	}
	return transactions, nil
}

// pickCity samples the weighted city distribution
func pickCity(rng *rand.Rand) string {
	target := rng.Float64()
	cumulative := 0.0
	for _, c := range Cities {
		cumulative += c.Weight
		if target < cumulative {
			return c.City
		}
	}
	return Cities[len(Cities)-1].City
}

// drawAmount samples the profile, floors it at MinAmount and rounds to cents
func drawAmount(rng *rand.Rand, p Profile) float64 {
	amount := math.Max(MinAmount, rng.NormFloat64()*p.StdDev+p.Mean)
	return RoundCents(amount)
}

// RoundCents rounds half to even at two decimal places
func RoundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).RoundBank(2).InexactFloat64()
}
