package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is the linear ensemble member: full-batch gradient
// descent with L2 regularization on standardized features.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`

	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
	L2           float64 `json:"l2"`
}

// NewLogisticRegression creates a logistic model with default hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Epochs: 300, L2: 1e-3}
}

// Name implements Classifier.
func (m *LogisticRegression) Name() string { return "logistic_regression" }

// Trained implements Classifier.
func (m *LogisticRegression) Trained() bool { return len(m.Weights) > 0 }

// Train implements Classifier.
func (m *LogisticRegression) Train(features [][]float64, labels []int) error {
	dims, err := validateTrainingSet(features, labels)
	if err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}

	m.Weights = make([]float64, dims)
	m.Bias = 0
	n := float64(len(features))

	grad := make([]float64, dims)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		var biasGrad float64
		for i, row := range features {
			p := sigmoid(floats.Dot(m.Weights, row) + m.Bias)
			diff := p - float64(labels[i])
			floats.AddScaled(grad, diff, row)
			biasGrad += diff
		}
		for d := range m.Weights {
			m.Weights[d] -= m.LearningRate * (grad[d]/n + m.L2*m.Weights[d])
		}
		m.Bias -= m.LearningRate * biasGrad / n
	}
	return nil
}

// PredictProba implements Classifier.
func (m *LogisticRegression) PredictProba(features []float64) (float64, error) {
	if !m.Trained() {
		return 0, ErrNotTrained
	}
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("logistic regression: want %d features, got %d", len(m.Weights), len(features))
	}
	return sigmoid(floats.Dot(m.Weights, features) + m.Bias), nil
}

func sigmoid(z float64) float64 {
	// Clamp to keep exp finite on extreme inputs.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
