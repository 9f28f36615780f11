package segmentation

import (
	"math"
)

// NumFeatures is the dimensionality of a customer feature vector
const NumFeatures = 3

// Feature dimension indices, in vector order
const (
	DimTotalSpend = iota
	DimAvgSpend
	DimTxCount
)

// FeatureNames names each dimension in vector order
var FeatureNames = [NumFeatures]string{"total_spend", "avg_spend", "tx_count"}

// FeatureVector is the per-customer reduction of a transaction history.
// Only customers with at least one transaction have one.
type FeatureVector struct {
	CustomerID int     `json:"customer_id"`
	TotalSpend float64 `json:"total_spend"`
	AvgSpend   float64 `json:"avg_spend"`
	TxCount    int     `json:"tx_count"`
}

// Values returns the vector in dimension order
func (f FeatureVector) Values() []float64 {
	return []float64{f.TotalSpend, f.AvgSpend, float64(f.TxCount)}
}

// IsValid checks the vector describes at least one finite transaction
func (f FeatureVector) IsValid() bool {
	return f.CustomerID > 0 && f.TxCount > 0 &&
		!math.IsNaN(f.TotalSpend) && !math.IsInf(f.TotalSpend, 0) &&
		!math.IsNaN(f.AvgSpend) && !math.IsInf(f.AvgSpend, 0)
}

// Assignment maps a customer to its cluster
type Assignment struct {
	CustomerID int `json:"customer_id"`
	ClusterID  int `json:"cluster_id"`
}
