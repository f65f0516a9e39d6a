package scoring

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/ml"
)

// ModelVersion tags persisted artifacts; bump when the feature order or the
// ensemble composition changes.
const ModelVersion = "1"

// TrainReport summarizes a training run.
type TrainReport struct {
	Samples          int       `json:"samples"`
	Positives        int       `json:"positives"`
	CalibrationScore float64   `json:"calibration_score"`
	TrainedAt        time.Time `json:"trained_at"`
}

// Train fits the three ensemble members on labeled samples and swaps the
// engine into trained mode. Training is a rare, exclusive operation;
// concurrent scoring continues against the previous ensemble until the
// single atomic swap. With too little data the engine keeps its current
// state and reports domain.ErrInsufficientTrainingData.
func (e *Engine) Train(samples []LabeledSample, store ArtifactStore) (TrainReport, error) {
	if len(samples) < ml.MinTrainingSamples {
		return TrainReport{}, fmt.Errorf("%w: %d samples, need %d",
			domain.ErrInsufficientTrainingData, len(samples), ml.MinTrainingSamples)
	}

	features := make([][]float64, len(samples))
	labels := make([]int, len(samples))
	positives := 0
	for i, s := range samples {
		features[i] = s.Features.Clamped().Vector()
		if s.Infringing {
			labels[i] = 1
			positives++
		}
	}
	if positives == 0 || positives == len(samples) {
		e.logger.Warn("single-class training set, ensemble quality will be poor",
			zap.Int("samples", len(samples)), zap.Int("positives", positives))
	}

	scaler := &ml.StandardScaler{}
	if err := scaler.Fit(features); err != nil {
		return TrainReport{}, fmt.Errorf("fit scaler: %w", err)
	}
	scaled := scaler.TransformAll(features)

	forest := ml.NewRandomForest()
	boost := ml.NewGradientBoost()
	logistic := ml.NewLogisticRegression()
	for _, m := range []ml.Classifier{forest, boost, logistic} {
		if err := m.Train(scaled, labels); err != nil {
			return TrainReport{}, fmt.Errorf("train %s: %w", m.Name(), err)
		}
	}

	art := &Artifacts{Forest: forest, Boost: boost, Logistic: logistic, Scaler: scaler}
	calibration := trainingCalibration(art, scaled, labels)
	now := time.Now().UTC()
	art.Meta = ArtifactMeta{
		ModelVersion:     ModelVersion,
		FeatureNames:     domain.FeatureNames(),
		AutoApprove:      e.CurrentThresholds().AutoApprove,
		AutoReject:       e.CurrentThresholds().AutoReject,
		CalibrationScore: calibration,
		TrainedAt:        now,
	}

	e.mu.Lock()
	e.artifacts = art
	e.calibration = calibration
	e.mu.Unlock()

	if store != nil {
		if err := store.Save(art); err != nil {
			// The in-memory ensemble is live either way; persistence failure
			// only affects the next restart.
			e.logger.Error("failed to persist model artifacts", zap.Error(err))
		}
	}

	e.logger.Info("ensemble trained",
		zap.Int("samples", len(samples)),
		zap.Int("positives", positives),
		zap.Float64("calibration", calibration),
	)
	return TrainReport{
		Samples:          len(samples),
		Positives:        positives,
		CalibrationScore: calibration,
		TrainedAt:        now,
	}, nil
}

// trainingCalibration is the complement of the mean absolute error of the
// ensemble probability against the training labels. An optimistic estimate
// (it reuses the training set), good enough for the diagnostic field.
func trainingCalibration(art *Artifacts, scaled [][]float64, labels []int) float64 {
	var totalErr float64
	for i, row := range scaled {
		pF, _ := art.Forest.PredictProba(row)
		pB, _ := art.Boost.PredictProba(row)
		pL, _ := art.Logistic.PredictProba(row)
		p := pF*weightForest + pB*weightBoost + pL*weightLogistic
		totalErr += math.Abs(p - float64(labels[i]))
	}
	return clamp01(1 - totalErr/float64(len(scaled)))
}
