package segmentation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "bankcli/internal/errors"
)

// machineEpsilon is the gap between 1 and the next float64
var machineEpsilon = math.Nextafter(1, 2) - 1

// Scaler holds the population statistics fitted over the full customer sample.
// It is a value: fit once, then pass it explicitly to every transform so that
// customers scored later are scaled exactly like the training population.
type Scaler struct {
	Mean   [NumFeatures]float64 `json:"mean"`
	StdDev [NumFeatures]float64 `json:"stddev"`
	N      int                  `json:"n"`
}

// FitScaler computes the per-dimension population mean and standard deviation
// (denominator N). A dimension whose variance is zero, or indistinguishable
// from rounding noise around its mean, gets a standard deviation of exactly 0.
func FitScaler(vectors []FeatureVector) (Scaler, error) {
	if len(vectors) == 0 {
		return Scaler{}, apperrors.NewInputError("cannot fit scaler on an empty sample", nil)
	}

	n := len(vectors)
	columns := make([][]float64, NumFeatures)
	for d := range columns {
		columns[d] = make([]float64, n)
	}
	for i, v := range vectors {
		for d, x := range v.Values() {
			columns[d][i] = x
		}
	}

	s := Scaler{N: n}
	for d, col := range columns {
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[d] = mean
		if isConstant(mean, variance, n) {
			s.StdDev[d] = 0
			continue
		}
		s.StdDev[d] = math.Sqrt(variance)
	}
	return s, nil
}

// isConstant treats variance below the accumulated rounding error of the mean as zero
func isConstant(mean, variance float64, n int) bool {
	if variance <= 0 {
		return true
	}
	bound := float64(n) * machineEpsilon * math.Abs(mean)
	return variance <= bound*bound
}

// Degenerate returns the names of dimensions with zero standard deviation
func (s Scaler) Degenerate() []string {
	var names []string
	for d, sd := range s.StdDev {
		if sd == 0 {
			names = append(names, FeatureNames[d])
		}
	}
	return names
}

// DegeneracyErrors describes each degenerate dimension as a numeric degeneracy error.
// They are informational: Transform already maps those dimensions to 0.
func (s Scaler) DegeneracyErrors() []error {
	var errs []error
	for _, name := range s.Degenerate() {
		errs = append(errs, apperrors.NewNumericDegeneracyError(name))
	}
	return errs
}

// TransformValues standardizes a raw vector in dimension order.
// Dimensions with zero standard deviation map to 0.
func (s Scaler) TransformValues(values []float64) []float64 {
	z := make([]float64, NumFeatures)
	for d := 0; d < NumFeatures && d < len(values); d++ {
		if s.StdDev[d] == 0 {
			continue
		}
		z[d] = (values[d] - s.Mean[d]) / s.StdDev[d]
	}
	return z
}

// TransformOne standardizes a single feature vector
func (s Scaler) TransformOne(v FeatureVector) []float64 {
	return s.TransformValues(v.Values())
}

// Transform standardizes every vector, preserving order
func (s Scaler) Transform(vectors []FeatureVector) [][]float64 {
	points := make([][]float64, len(vectors))
	for i, v := range vectors {
		points[i] = s.TransformOne(v)
	}
	return points
}

// Inverse maps a standardized point back to raw feature units.
// Degenerate dimensions map back to the population mean.
func (s Scaler) Inverse(z []float64) []float64 {
	raw := make([]float64, NumFeatures)
	for d := 0; d < NumFeatures; d++ {
		raw[d] = s.Mean[d]
		if d < len(z) {
			raw[d] += z[d] * s.StdDev[d]
		}
	}
	return raw
}
