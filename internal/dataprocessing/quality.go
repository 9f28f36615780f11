package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"

	"bankcli/pkg/contracts/domain"
)

// maxSamples caps the offending ids kept per issue
const maxSamples = 10

// QualityReport summarizes structural problems found in a dataset before
// segmentation. It never modifies the records.
type QualityReport struct {
	Customers    int `json:"customers"`
	Transactions int `json:"transactions"`

	// InvalidFields counts failed field checks keyed by "Type.Field"
	InvalidFields map[string]int `json:"invalid_fields"`

	DuplicateCustomers   []int `json:"duplicate_customers,omitempty"`
	DuplicateTransaction []int `json:"duplicate_transactions,omitempty"`
	OrphanTransactions   int   `json:"orphan_transactions"`
	OrphanSample         []int `json:"orphan_sample,omitempty"`
	InactiveCustomers    int   `json:"inactive_customers"`
}

// Clean reports whether no problem was found. Inactive customers are not a problem.
func (q *QualityReport) Clean() bool {
	return len(q.InvalidFields) == 0 &&
		len(q.DuplicateCustomers) == 0 &&
		len(q.DuplicateTransaction) == 0 &&
		q.OrphanTransactions == 0
}

// Inspector checks datasets against the record validation tags and
// referential integrity.
type Inspector struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewInspector creates a dataset inspector
func NewInspector(logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{
		validate: validator.New(),
		logger:   logger,
	}
}

// Inspect checks every record and logs a summary of what it found
func (in *Inspector) Inspect(ctx context.Context, customers []domain.Customer, transactions []domain.Transaction) *QualityReport {
	report := &QualityReport{
		Customers:     len(customers),
		Transactions:  len(transactions),
		InvalidFields: map[string]int{},
	}

	known := make(map[int]bool, len(customers))
	for _, c := range customers {
		in.check(c, report)
		if known[c.CustomerID] {
			report.DuplicateCustomers = appendSample(report.DuplicateCustomers, c.CustomerID)
		}
		known[c.CustomerID] = true
	}

	active := make(map[int]bool, len(customers))
	seenTx := make(map[int]bool, len(transactions))
	for _, tx := range transactions {
		in.check(tx, report)
		if tx.TransactionDate.IsZero() {
			report.InvalidFields["Transaction.TransactionDate"]++
		}
		if seenTx[tx.TransactionID] {
			report.DuplicateTransaction = appendSample(report.DuplicateTransaction, tx.TransactionID)
		}
		seenTx[tx.TransactionID] = true

		if !known[tx.CustomerID] {
			report.OrphanTransactions++
			report.OrphanSample = appendSample(report.OrphanSample, tx.TransactionID)
			continue
		}
		active[tx.CustomerID] = true
	}

	for id := range known {
		if !active[id] {
			report.InactiveCustomers++
		}
	}
	sort.Ints(report.DuplicateCustomers)
	sort.Ints(report.DuplicateTransaction)

	level := slog.LevelInfo
	if !report.Clean() {
		level = slog.LevelWarn
	}
	in.logger.Log(ctx, level, "dataset inspected",
		slog.Int("customers", report.Customers),
		slog.Int("transactions", report.Transactions),
		slog.Any("invalid_fields", report.InvalidFields),
		slog.Int("duplicate_customers", len(report.DuplicateCustomers)),
		slog.Int("duplicate_transactions", len(report.DuplicateTransaction)),
		slog.Int("orphan_transactions", report.OrphanTransactions),
		slog.Int("inactive_customers", report.InactiveCustomers))

	return report
}

// check runs the struct tags of record and tallies each failed field
func (in *Inspector) check(record any, report *QualityReport) {
	err := in.validate.Struct(record)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		report.InvalidFields["_"]++
		return
	}
	for _, fe := range verrs {
		report.InvalidFields[fe.StructNamespace()]++
	}
}

func appendSample(ids []int, id int) []int {
	if len(ids) >= maxSamples {
		return ids
	}
	return append(ids, id)
}
