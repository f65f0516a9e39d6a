// Package ml holds the trainable classifiers behind the confidence scoring
// ensemble. Every model is a plain Go implementation of the Classifier
// capability interface and serializes to JSON for artifact persistence, so
// any conforming backend can be substituted without touching the pipeline.
package ml

import "errors"

// ErrNotTrained signals prediction on an untrained model.
var ErrNotTrained = errors.New("model not trained")

// MinTrainingSamples is the floor below which training refuses to run.
var MinTrainingSamples = 10

// Classifier is a binary probabilistic classifier. Train takes feature rows
// and {0,1} labels; PredictProba returns P(label=1) for one row.
// Implementations are safe for concurrent prediction after training.
type Classifier interface {
	Name() string
	Train(features [][]float64, labels []int) error
	PredictProba(features []float64) (float64, error)
	Trained() bool
}

func validateTrainingSet(features [][]float64, labels []int) (dims int, err error) {
	if len(features) != len(labels) {
		return 0, errors.New("feature/label length mismatch")
	}
	if len(features) < MinTrainingSamples {
		return 0, errors.New("too few training samples")
	}
	dims = len(features[0])
	for _, row := range features {
		if len(row) != dims {
			return 0, errors.New("ragged feature matrix")
		}
	}
	for _, l := range labels {
		if l != 0 && l != 1 {
			return 0, errors.New("labels must be 0 or 1")
		}
	}
	return dims, nil
}
