package segmentation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	apperrors "bankcli/internal/errors"
	"bankcli/pkg/contracts/domain"
)

// OrphanPolicy decides what happens to a transaction whose customer is unknown
type OrphanPolicy string

const (
	// OrphanReject fails aggregation with an input error
	OrphanReject OrphanPolicy = "reject"
	// OrphanDrop skips the transaction and logs a warning with the dropped count
	OrphanDrop OrphanPolicy = "drop"
)

// ParseOrphanPolicy converts a configuration string into an OrphanPolicy
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(s) {
	case OrphanReject, "":
		return OrphanReject, nil
	case OrphanDrop:
		return OrphanDrop, nil
	default:
		return "", apperrors.NewConfigError(fmt.Sprintf("unknown orphan policy %q", s), nil)
	}
}

// Aggregation is the output of the feature aggregator
type Aggregation struct {
	// Features holds one vector per active customer, ordered by customer_id
	Features []FeatureVector
	// Inactive lists customers without transactions, ordered by customer_id.
	// They have no feature vector and take no part in segmentation.
	Inactive []int
	// DroppedOrphans counts transactions skipped under OrphanDrop
	DroppedOrphans int
}

// Aggregator reduces transaction histories to per-customer feature vectors
type Aggregator struct {
	policy OrphanPolicy
	logger *slog.Logger
}

// NewAggregator creates an aggregator with the given orphan policy
func NewAggregator(policy OrphanPolicy, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = OrphanReject
	}
	return &Aggregator{
		policy: policy,
		logger: logger,
	}
}

type accumulator struct {
	total float64
	count int
}

// Aggregate computes total_spend, avg_spend and tx_count for every customer
// with at least one transaction. The result does not depend on transaction order
// beyond floating point summation order, which follows the input.
func (a *Aggregator) Aggregate(ctx context.Context, customers []domain.Customer, transactions []domain.Transaction) (*Aggregation, error) {
	index, dup := domain.IndexCustomers(customers)
	if dup != 0 {
		return nil, apperrors.NewInputError("duplicate customer_id in customer set", nil).
			WithContext("customer_id", dup)
	}

	acc := make(map[int]*accumulator, len(customers))
	dropped := 0
	var droppedIDs []int

	for _, tx := range transactions {
		if _, ok := index[tx.CustomerID]; !ok {
			if a.policy == OrphanReject {
				return nil, apperrors.NewInputError("transaction references unknown customer", nil).
					WithContext("transaction_id", tx.TransactionID).
					WithContext("customer_id", tx.CustomerID)
			}
			dropped++
			if len(droppedIDs) < 10 {
				droppedIDs = append(droppedIDs, tx.TransactionID)
			}
			continue
		}

		if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
			return nil, apperrors.NewInputError("transaction amount is not a finite number", nil).
				WithContext("transaction_id", tx.TransactionID)
		}

		entry := acc[tx.CustomerID]
		if entry == nil {
			entry = &accumulator{}
			acc[tx.CustomerID] = entry
		}
		entry.total += tx.Amount
		entry.count++
	}

	if dropped > 0 {
		a.logger.WarnContext(ctx, "dropped transactions referencing unknown customers",
			slog.Int("dropped", dropped),
			slog.Any("sample_transaction_ids", droppedIDs),
			slog.String("policy", string(a.policy)))
	}

	result := &Aggregation{
		Features:       make([]FeatureVector, 0, len(acc)),
		DroppedOrphans: dropped,
	}

	ids := make([]int, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		entry, ok := acc[id]
		if !ok {
			result.Inactive = append(result.Inactive, id)
			continue
		}
		result.Features = append(result.Features, FeatureVector{
			CustomerID: id,
			TotalSpend: entry.total,
			AvgSpend:   entry.total / float64(entry.count),
			TxCount:    entry.count,
		})
	}

	a.logger.DebugContext(ctx, "aggregated customer features",
		slog.Int("transactions", len(transactions)),
		slog.Int("active_customers", len(result.Features)),
		slog.Int("inactive_customers", len(result.Inactive)))

	return result, nil
}
