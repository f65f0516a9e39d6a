package ml

import (
	"fmt"
	"math"
	"sort"
)

// stump is one boosted regression stump fit to logistic gradients.
type stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	LeftVal   float64 `json:"left_val"`
	RightVal  float64 `json:"right_val"`
}

func (s *stump) predict(row []float64) float64 {
	if s.Feature < len(row) && row[s.Feature] <= s.Threshold {
		return s.LeftVal
	}
	return s.RightVal
}

// GradientBoost is the boosted-tree member: gradient boosting of regression
// stumps on the logistic loss.
type GradientBoost struct {
	Prior  float64 `json:"prior"` // initial log-odds
	Stumps []stump `json:"stumps"`

	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`

	trained bool
}

// NewGradientBoost creates a boosted model with default hyperparameters.
func NewGradientBoost() *GradientBoost {
	return &GradientBoost{Rounds: 60, LearningRate: 0.2}
}

// Name implements Classifier.
func (m *GradientBoost) Name() string { return "gradient_boost" }

// Trained implements Classifier.
func (m *GradientBoost) Trained() bool { return m.trained || len(m.Stumps) > 0 }

// Train implements Classifier.
func (m *GradientBoost) Train(features [][]float64, labels []int) error {
	dims, err := validateTrainingSet(features, labels)
	if err != nil {
		return fmt.Errorf("gradient boost: %w", err)
	}
	n := len(features)

	pos := 0
	for _, l := range labels {
		pos += l
	}
	// Clamped log-odds prior keeps degenerate label sets finite.
	p := (float64(pos) + 0.5) / (float64(n) + 1)
	m.Prior = math.Log(p / (1 - p))
	m.Stumps = nil

	score := make([]float64, n)
	for i := range score {
		score[i] = m.Prior
	}

	residual := make([]float64, n)
	for round := 0; round < m.Rounds; round++ {
		for i := range residual {
			residual[i] = float64(labels[i]) - sigmoid(score[i])
		}
		st, ok := fitStump(features, residual, dims)
		if !ok {
			break
		}
		st.LeftVal *= m.LearningRate
		st.RightVal *= m.LearningRate
		m.Stumps = append(m.Stumps, st)
		for i, row := range features {
			score[i] += st.predict(row)
		}
	}
	m.trained = true
	return nil
}

// PredictProba implements Classifier.
func (m *GradientBoost) PredictProba(features []float64) (float64, error) {
	if !m.Trained() {
		return 0, ErrNotTrained
	}
	score := m.Prior
	for i := range m.Stumps {
		score += m.Stumps[i].predict(features)
	}
	return sigmoid(score), nil
}

// fitStump finds the single split minimizing squared error against the
// residuals, with the mean residual on each side as leaf value.
func fitStump(features [][]float64, residual []float64, dims int) (stump, bool) {
	best := stump{}
	bestSSE := math.Inf(1)
	found := false

	vals := make([]float64, len(features))
	for d := 0; d < dims; d++ {
		for i, row := range features {
			vals[i] = row[d]
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		for v := 1; v < len(sorted); v++ {
			if sorted[v] == sorted[v-1] {
				continue
			}
			threshold := (sorted[v] + sorted[v-1]) / 2

			var lSum, rSum float64
			var lN, rN int
			for i := range features {
				if vals[i] <= threshold {
					lSum += residual[i]
					lN++
				} else {
					rSum += residual[i]
					rN++
				}
			}
			if lN == 0 || rN == 0 {
				continue
			}
			lMean, rMean := lSum/float64(lN), rSum/float64(rN)

			var sse float64
			for i := range features {
				pred := rMean
				if vals[i] <= threshold {
					pred = lMean
				}
				diff := residual[i] - pred
				sse += diff * diff
			}
			if sse < bestSSE {
				bestSSE = sse
				best = stump{Feature: d, Threshold: threshold, LeftVal: lMean, RightVal: rMean}
				found = true
			}
		}
	}
	return best, found
}
