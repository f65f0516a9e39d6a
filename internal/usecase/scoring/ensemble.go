package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/copyshield/copyshield/internal/domain"
)

// Fixed ensemble member weights: forest / boost / logistic.
const (
	weightForest   = 0.4
	weightBoost    = 0.4
	weightLogistic = 0.2
)

// ensembleScore averages the three member probabilities on the standardized
// feature vector. Agreement derives from the dispersion of the member
// probabilities: tight members agree, scattered members do not. The
// prediction margin is a symmetric band from the same dispersion.
func (e *Engine) ensembleScore(art *Artifacts, f domain.ConfidenceFeatures) (
	overall, agreement, margin float64, importance map[string]float64,
) {
	row := art.Scaler.Transform(f.Vector())

	pForest := mustProba(art.Forest.PredictProba(row))
	pBoost := mustProba(art.Boost.PredictProba(row))
	pLogistic := mustProba(art.Logistic.PredictProba(row))

	overall = pForest*weightForest + pBoost*weightBoost + pLogistic*weightLogistic

	probs := []float64{pForest, pBoost, pLogistic}
	dispersion := stat.StdDev(probs, nil)
	if math.IsNaN(dispersion) {
		dispersion = 0
	}
	agreement = clamp01(1 - 2*dispersion)
	margin = dispersion * 1.96
	if margin < 0.02 {
		margin = 0.02
	}

	return overall, agreement, margin, logisticImportance(art.Logistic.Weights)
}

// mustProba propagates member failures into the engine's recover-based
// fail-safe path.
func mustProba(p float64, err error) float64 {
	if err != nil {
		panic(err)
	}
	return p
}

// logisticImportance reports normalized absolute linear weights as the
// feature importance map. The linear member is the only directly
// interpretable one; tree importances would require per-split bookkeeping
// that the audit trail does not need.
func logisticImportance(weights []float64) map[string]float64 {
	names := domain.FeatureNames()
	out := make(map[string]float64, len(names))
	var total float64
	for _, w := range weights {
		total += math.Abs(w)
	}
	for i, name := range names {
		if i >= len(weights) || total == 0 {
			out[name] = 0
			continue
		}
		out[name] = math.Abs(weights[i]) / total
	}
	return out
}
