package segmentation

import (
	"fmt"
	"strings"

	apperrors "bankcli/internal/errors"
)

// ClusterSummary describes one non-empty cluster in raw feature units
type ClusterSummary struct {
	ClusterID      int     `json:"cluster_id"`
	Count          int     `json:"count"`
	MeanTotalSpend float64 `json:"mean_total_spend"`
	MeanAvgSpend   float64 `json:"mean_avg_spend"`
	MeanTxCount    float64 `json:"mean_tx_count"`
}

// Values returns the cluster means in dimension order
func (c ClusterSummary) Values() []float64 {
	return []float64{c.MeanTotalSpend, c.MeanAvgSpend, c.MeanTxCount}
}

// Summarize groups raw vectors by cluster id and averages every feature.
// assignments[i] is the cluster of vectors[i]. Only non-empty clusters are
// returned, ordered by cluster id.
func Summarize(vectors []FeatureVector, assignments []int, k int) ([]ClusterSummary, error) {
	if len(vectors) != len(assignments) {
		return nil, apperrors.NewInputError(
			fmt.Sprintf("%d vectors but %d assignments", len(vectors), len(assignments)), nil)
	}
	if k < 1 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("k must be at least 1, got %d", k), nil)
	}

	sums := make([]ClusterSummary, k)
	for i, c := range assignments {
		if c < 0 || c >= k {
			return nil, apperrors.NewInputError(fmt.Sprintf("cluster id %d outside [0,%d)", c, k), nil).
				WithContext("customer_id", vectors[i].CustomerID)
		}
		v := vectors[i]
		sums[c].Count++
		sums[c].MeanTotalSpend += v.TotalSpend
		sums[c].MeanAvgSpend += v.AvgSpend
		sums[c].MeanTxCount += float64(v.TxCount)
	}

	summaries := make([]ClusterSummary, 0, k)
	for c, s := range sums {
		if s.Count == 0 {
			continue
		}
		n := float64(s.Count)
		summaries = append(summaries, ClusterSummary{
			ClusterID:      c,
			Count:          s.Count,
			MeanTotalSpend: s.MeanTotalSpend / n,
			MeanAvgSpend:   s.MeanAvgSpend / n,
			MeanTxCount:    s.MeanTxCount / n,
		})
	}
	return summaries, nil
}

// labelThreshold is how far, in population standard deviations, a cluster mean
// must sit from the population mean to earn a qualifier.
const labelThreshold = 0.5

// Segment is a cluster summary with a human readable interpretation
type Segment struct {
	ClusterSummary
	Label string  `json:"label"`
	Share float64 `json:"share"`
}

// qualifiers per dimension: above threshold, below threshold
var qualifiers = [NumFeatures][2]string{
	DimTotalSpend: {"high spend", "low spend"},
	DimAvgSpend:   {"large tickets", "small tickets"},
	DimTxCount:    {"frequent", "infrequent"},
}

// Interpret labels every summary by comparing its means with the population
// statistics held in scaler.
func Interpret(summaries []ClusterSummary, scaler Scaler) []Segment {
	total := 0
	for _, s := range summaries {
		total += s.Count
	}

	segments := make([]Segment, len(summaries))
	for i, s := range summaries {
		seg := Segment{ClusterSummary: s, Label: label(scaler.TransformValues(s.Values()))}
		if total > 0 {
			seg.Share = float64(s.Count) / float64(total)
		}
		segments[i] = seg
	}
	return segments
}

func label(z []float64) string {
	var parts []string
	for d, q := range qualifiers {
		switch {
		case z[d] >= labelThreshold:
			parts = append(parts, q[0])
		case z[d] <= -labelThreshold:
			parts = append(parts, q[1])
		}
	}
	if len(parts) == 0 {
		return "average"
	}
	return strings.Join(parts, ", ")
}

// Describe renders the one-line interpretation of the segment
func (s Segment) Describe() string {
	line := fmt.Sprintf("Cluster %d: %d customers -> avg total %.1f, avg tx count %.1f, avg amount %.1f",
		s.ClusterID, s.Count, s.MeanTotalSpend, s.MeanTxCount, s.MeanAvgSpend)
	if s.Label != "" {
		line += " (" + s.Label + ")"
	}
	return line
}
