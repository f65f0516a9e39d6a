package scoring

import "github.com/copyshield/copyshield/internal/domain"

// Fallback-mode constants. The rule-based path has no member dispersion to
// derive agreement or an interval from, so it reports fixed neutral values.
const (
	fallbackAgreement   = 0.5
	fallbackMargin      = 0.10
	fallbackCalibration = 0.6
)

// similarityWeights mirrors the comparator weight table over the feature
// vector's per-method score fields.
var similarityWeights = []struct {
	name   string
	weight float64
	value  func(domain.ConfidenceFeatures) float64
}{
	{"deep_features_score", 0.30, func(f domain.ConfidenceFeatures) float64 { return f.DeepFeaturesScore }},
	{"perceptual_hash_score", 0.25, func(f domain.ConfidenceFeatures) float64 { return f.PerceptualHashScore }},
	{"average_hash_score", 0.10, func(f domain.ConfidenceFeatures) float64 { return f.AverageHashScore }},
	{"difference_hash_score", 0.10, func(f domain.ConfidenceFeatures) float64 { return f.DifferenceHashScore }},
	{"wavelet_hash_score", 0.10, func(f domain.ConfidenceFeatures) float64 { return f.WaveletHashScore }},
	{"color_hash_score", 0.10, func(f domain.ConfidenceFeatures) float64 { return f.ColorHashScore }},
	{"text_similarity_score", 0.05, func(f domain.ConfidenceFeatures) float64 { return f.TextSimilarityScore }},
}

// ruleScore is the deterministic untrained-mode score: a weighted similarity
// blend, scaled by a contextual multiplier, an age discount, and an
// uncertainty penalty. Exercised automatically whenever no trained ensemble
// is available.
func ruleScore(f domain.ConfidenceFeatures) (float64, map[string]float64) {
	var base float64
	importance := make(map[string]float64, len(similarityWeights))
	for _, w := range similarityWeights {
		contribution := w.weight * w.value(f)
		base += contribution
		importance[w.name] = contribution
	}

	// Contextual multiplier in [0.8, 1.2] from reputation and technical
	// quality signals.
	contextMean := (f.PlatformReliability + f.SourceCredibility + f.CreatorHistoryScore +
		f.PlatformSuccessRate + f.ScanConfidence + f.ProcessingQuality + f.ExtractionConfidence) / 7
	multiplier := 0.8 + 0.4*contextMean

	// Content older than a year is discounted up to 20%.
	ageDiscount := 1 - 0.2*f.ContentAgeDays

	// Self-reported model uncertainty shaves up to 25%.
	uncertaintyPenalty := 1 - 0.25*f.ModelUncertainty

	return clamp01(base * multiplier * ageDiscount * uncertaintyPenalty), importance
}
