package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bankcli/internal/errors"
)

func TestSummarize(t *testing.T) {
	vectors := []FeatureVector{
		{CustomerID: 1, TotalSpend: 100, AvgSpend: 100, TxCount: 1},
		{CustomerID: 2, TotalSpend: 300, AvgSpend: 150, TxCount: 2},
		{CustomerID: 3, TotalSpend: 9000, AvgSpend: 3000, TxCount: 3},
	}

	summaries, err := Summarize(vectors, []int{2, 2, 0}, 4)
	require.NoError(t, err)

	require.Len(t, summaries, 2, "empty clusters 1 and 3 are omitted")
	assert.Equal(t, ClusterSummary{ClusterID: 0, Count: 1, MeanTotalSpend: 9000, MeanAvgSpend: 3000, MeanTxCount: 3}, summaries[0])
	assert.Equal(t, ClusterSummary{ClusterID: 2, Count: 2, MeanTotalSpend: 200, MeanAvgSpend: 125, MeanTxCount: 1.5}, summaries[1])
}

func TestSummarize_Errors(t *testing.T) {
	vectors := []FeatureVector{{CustomerID: 1, TotalSpend: 1, AvgSpend: 1, TxCount: 1}}

	tests := []struct {
		name        string
		assignments []int
		k           int
		errType     apperrors.ErrorType
	}{
		{"length mismatch", []int{0, 1}, 2, apperrors.ErrTypeInput},
		{"label out of range", []int{3}, 2, apperrors.ErrTypeInput},
		{"negative label", []int{-1}, 2, apperrors.ErrTypeInput},
		{"k below one", []int{0}, 0, apperrors.ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Summarize(vectors, tt.assignments, tt.k)
			assert.True(t, apperrors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestInterpret(t *testing.T) {
	scaler := Scaler{
		Mean:   [NumFeatures]float64{1000, 200, 5},
		StdDev: [NumFeatures]float64{500, 100, 2},
		N:      10,
	}
	summaries := []ClusterSummary{
		{ClusterID: 0, Count: 6, MeanTotalSpend: 1100, MeanAvgSpend: 210, MeanTxCount: 5.5},
		{ClusterID: 1, Count: 3, MeanTotalSpend: 2500, MeanAvgSpend: 90, MeanTxCount: 9},
		{ClusterID: 3, Count: 1, MeanTotalSpend: 200, MeanAvgSpend: 400, MeanTxCount: 1},
	}

	segments := Interpret(summaries, scaler)
	require.Len(t, segments, 3)

	assert.Equal(t, "average", segments[0].Label)
	assert.Equal(t, "high spend, small tickets, frequent", segments[1].Label)
	assert.Equal(t, "low spend, large tickets, infrequent", segments[2].Label)

	assert.InDelta(t, 0.6, segments[0].Share, 1e-12)
	assert.InDelta(t, 0.1, segments[2].Share, 1e-12)
	assert.Equal(t, 3, segments[2].ClusterID)
}

func TestInterpret_DegenerateDimensionIsAverage(t *testing.T) {
	scaler := Scaler{
		Mean:   [NumFeatures]float64{1000, 200, 1},
		StdDev: [NumFeatures]float64{500, 100, 0},
	}
	segments := Interpret([]ClusterSummary{
		{ClusterID: 0, Count: 1, MeanTotalSpend: 1000, MeanAvgSpend: 200, MeanTxCount: 1},
	}, scaler)

	assert.Equal(t, "average", segments[0].Label)
}

func TestSegment_Describe(t *testing.T) {
	s := Segment{
		ClusterSummary: ClusterSummary{ClusterID: 0, Count: 241, MeanTotalSpend: 5230.44, MeanAvgSpend: 845.2, MeanTxCount: 6.08},
		Label:          "high spend",
	}
	assert.Equal(t, "Cluster 0: 241 customers -> avg total 5230.4, avg tx count 6.1, avg amount 845.2 (high spend)", s.Describe())

	s.Label = ""
	assert.Equal(t, "Cluster 0: 241 customers -> avg total 5230.4, avg tx count 6.1, avg amount 845.2", s.Describe())
}
