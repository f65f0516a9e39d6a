package scoring

import (
	"fmt"

	"github.com/copyshield/copyshield/internal/domain"
)

// Uncertainty band that shifts risk by one level in either direction.
const (
	riskShiftUp   = 0.3
	riskShiftDown = 0.1
)

// uncertaintySignal averages the four reliability complements. High values
// mean the pipeline trusts its own inputs less.
func uncertaintySignal(f domain.ConfidenceFeatures) float64 {
	return (f.ModelUncertainty +
		(1 - f.ProcessingQuality) +
		(1 - f.ExtractionConfidence) +
		(1 - f.SourceCredibility)) / 4
}

// riskLevel derives risk from confidence, then shifts it on the uncertainty
// signal. Two requests with identical confidence but different reliability
// can land in different buckets.
func riskLevel(confidence, uncertainty float64) domain.RiskLevel {
	var base domain.RiskLevel
	switch {
	case confidence >= 0.90:
		base = domain.RiskVeryLow
	case confidence >= 0.80:
		base = domain.RiskLow
	case confidence >= 0.60:
		base = domain.RiskMedium
	case confidence >= 0.40:
		base = domain.RiskHigh
	default:
		base = domain.RiskVeryHigh
	}

	switch {
	case uncertainty > riskShiftUp:
		return base.Shift(1)
	case uncertainty < riskShiftDown:
		return base.Shift(-1)
	}
	return base
}

// falsePositiveProbability estimates the chance an approval would be wrong:
// a confidence-indexed base rate plus an additive uncertainty penalty. Kept
// strictly inside (0,1).
func falsePositiveProbability(confidence, uncertainty float64) float64 {
	var base float64
	switch {
	case confidence >= 0.95:
		base = 0.01
	case confidence >= 0.90:
		base = 0.03
	case confidence >= 0.80:
		base = 0.08
	case confidence >= 0.70:
		base = 0.18
	default:
		base = 0.40
	}

	p := base + 0.5*uncertainty
	if p < 0.001 {
		p = 0.001
	}
	if p > 0.99 {
		p = 0.99
	}
	return p
}

// Component confidence decompositions. Diagnostic only.

func similarityConfidence(f domain.ConfidenceFeatures) float64 {
	base, _ := ruleSimilarityBlend(f)
	return clamp01(base)
}

func ruleSimilarityBlend(f domain.ConfidenceFeatures) (float64, int) {
	var base float64
	for _, w := range similarityWeights {
		base += w.weight * w.value(f)
	}
	return base, len(similarityWeights)
}

func contextualConfidence(f domain.ConfidenceFeatures) float64 {
	return clamp01((f.PlatformReliability + f.SourceCredibility + f.ContentPopularity + (1 - f.ContentAgeDays)) / 4)
}

func historicalConfidence(f domain.ConfidenceFeatures) float64 {
	return clamp01((f.CreatorHistoryScore + f.PlatformSuccessRate + f.SimilarMatchCount) / 3)
}

func technicalConfidence(f domain.ConfidenceFeatures) float64 {
	return clamp01((f.ScanConfidence + f.ProcessingQuality + f.ExtractionConfidence + (1 - f.ModelUncertainty)) / 4)
}

// scoreReasoning renders the audit string every automated decision carries.
func scoreReasoning(mode string, overall float64, decision domain.DecisionClass, risk domain.RiskLevel, f domain.ConfidenceFeatures) string {
	modeText := "rule-based fallback"
	if mode == "ensemble" {
		modeText = "trained ensemble"
	}
	return fmt.Sprintf(
		"%s scored %.3f (similarity %.2f, context %.2f, history %.2f, technical %.2f); decision %s at risk %s",
		modeText, overall,
		similarityConfidence(f), contextualConfidence(f), historicalConfidence(f), technicalConfidence(f),
		decision, risk,
	)
}
