package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers features to zero mean, unit variance. Fitted
// parameters are exported for JSON artifact persistence.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit learns per-column mean and standard deviation.
func (s *StandardScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("empty training set")
	}
	dims := len(features[0])
	s.Mean = make([]float64, dims)
	s.Std = make([]float64, dims)

	col := make([]float64, len(features))
	for d := 0; d < dims; d++ {
		for i, row := range features {
			if len(row) != dims {
				return errors.New("ragged feature matrix")
			}
			col[i] = row[d]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1 // constant column passes through centered
		}
		s.Mean[d] = mean
		s.Std[d] = std
	}
	return nil
}

// Transform scales one row in place-safe fashion (returns a new slice).
// Unfitted scalers pass input through unchanged.
func (s *StandardScaler) Transform(row []float64) []float64 {
	if len(s.Mean) == 0 || len(s.Mean) != len(row) {
		out := make([]float64, len(row))
		copy(out, row)
		return out
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Mean[i]) / s.Std[i]
	}
	return out
}

// TransformAll scales a whole matrix.
func (s *StandardScaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Transform(r)
	}
	return out
}

// Fitted reports whether Fit has run.
func (s *StandardScaler) Fitted() bool { return len(s.Mean) > 0 }
