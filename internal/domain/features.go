package domain

// ConfidenceFeatures is the fixed-order, fixed-width feature vector consumed
// by the confidence scoring engine. It is never partially defined: every
// field has a documented default so the vector stays complete when upstream
// signals are missing. NewConfidenceFeatures returns the defaults; callers
// overwrite only what they know.
//
// All fields are normalized to [0,1] before entering the vector.
type ConfidenceFeatures struct {
	// Per-method similarity scores. Default 0 (method absent).
	PerceptualHashScore float64 `json:"perceptual_hash_score"`
	AverageHashScore    float64 `json:"average_hash_score"`
	DifferenceHashScore float64 `json:"difference_hash_score"`
	WaveletHashScore    float64 `json:"wavelet_hash_score"`
	ColorHashScore      float64 `json:"color_hash_score"`
	DeepFeaturesScore   float64 `json:"deep_features_score"`
	TextSimilarityScore float64 `json:"text_similarity_score"`

	// Aggregate similarity signals. Default 0.
	OverallSimilarity float64 `json:"overall_similarity"`
	MatchTypeRank     float64 `json:"match_type_rank"`
	MethodCoverage    float64 `json:"method_coverage"` // fraction of the 7 methods present
	ContentTypeRank   float64 `json:"content_type_rank"`

	// Contextual and historical signals. Reputation-like fields default to a
	// neutral 0.5.
	PlatformReliability float64 `json:"platform_reliability"`  // default 0.5
	SourceCredibility   float64 `json:"source_credibility"`    // default 0.5
	CreatorHistoryScore float64 `json:"creator_history_score"` // default 0.5
	PlatformSuccessRate float64 `json:"platform_success_rate"` // default 0.5
	ContentAgeDays      float64 `json:"content_age_days"`      // normalized vs 365d, default 0
	SimilarMatchCount   float64 `json:"similar_match_count"`   // normalized vs 10, default 0
	ContentPopularity   float64 `json:"content_popularity"`    // default 0

	// Technical self-reports. Quality-like fields default to 0.8.
	ScanConfidence       float64 `json:"scan_confidence"`       // default 0.8
	ProcessingQuality    float64 `json:"processing_quality"`    // default 0.8
	ExtractionConfidence float64 `json:"extraction_confidence"` // default 0.8
	ModelUncertainty     float64 `json:"model_uncertainty"`     // default 0.2
}

// FeatureCount is the fixed width of the confidence feature vector.
const FeatureCount = 22

// NewConfidenceFeatures returns a feature vector with every field at its
// documented default.
func NewConfidenceFeatures() ConfidenceFeatures {
	return ConfidenceFeatures{
		PlatformReliability:  0.5,
		SourceCredibility:    0.5,
		CreatorHistoryScore:  0.5,
		PlatformSuccessRate:  0.5,
		ScanConfidence:       0.8,
		ProcessingQuality:    0.8,
		ExtractionConfidence: 0.8,
		ModelUncertainty:     0.2,
	}
}

// FeatureNames lists the vector dimensions in canonical order. The order is
// part of the persisted model contract; changing it invalidates artifacts.
func FeatureNames() []string {
	return []string{
		"perceptual_hash_score",
		"average_hash_score",
		"difference_hash_score",
		"wavelet_hash_score",
		"color_hash_score",
		"deep_features_score",
		"text_similarity_score",
		"overall_similarity",
		"match_type_rank",
		"method_coverage",
		"content_type_rank",
		"platform_reliability",
		"source_credibility",
		"creator_history_score",
		"platform_success_rate",
		"content_age_days",
		"similar_match_count",
		"content_popularity",
		"scan_confidence",
		"processing_quality",
		"extraction_confidence",
		"model_uncertainty",
	}
}

// Vector flattens the features into canonical order.
func (f ConfidenceFeatures) Vector() []float64 {
	return []float64{
		f.PerceptualHashScore,
		f.AverageHashScore,
		f.DifferenceHashScore,
		f.WaveletHashScore,
		f.ColorHashScore,
		f.DeepFeaturesScore,
		f.TextSimilarityScore,
		f.OverallSimilarity,
		f.MatchTypeRank,
		f.MethodCoverage,
		f.ContentTypeRank,
		f.PlatformReliability,
		f.SourceCredibility,
		f.CreatorHistoryScore,
		f.PlatformSuccessRate,
		f.ContentAgeDays,
		f.SimilarMatchCount,
		f.ContentPopularity,
		f.ScanConfidence,
		f.ProcessingQuality,
		f.ExtractionConfidence,
		f.ModelUncertainty,
	}
}

// Clamped returns a copy with every field forced into [0,1]. Out-of-range
// caller input must degrade, not break, scoring.
func (f ConfidenceFeatures) Clamped() ConfidenceFeatures {
	v := f.Vector()
	for i := range v {
		if v[i] < 0 || v[i] != v[i] { // NaN guards included
			v[i] = 0
		} else if v[i] > 1 {
			v[i] = 1
		}
	}
	return FromVector(v)
}

// FromVector rebuilds features from a canonical-order slice. Short slices
// leave trailing fields at zero; long slices ignore the excess.
func FromVector(v []float64) ConfidenceFeatures {
	var f ConfidenceFeatures
	fields := []*float64{
		&f.PerceptualHashScore,
		&f.AverageHashScore,
		&f.DifferenceHashScore,
		&f.WaveletHashScore,
		&f.ColorHashScore,
		&f.DeepFeaturesScore,
		&f.TextSimilarityScore,
		&f.OverallSimilarity,
		&f.MatchTypeRank,
		&f.MethodCoverage,
		&f.ContentTypeRank,
		&f.PlatformReliability,
		&f.SourceCredibility,
		&f.CreatorHistoryScore,
		&f.PlatformSuccessRate,
		&f.ContentAgeDays,
		&f.SimilarMatchCount,
		&f.ContentPopularity,
		&f.ScanConfidence,
		&f.ProcessingQuality,
		&f.ExtractionConfidence,
		&f.ModelUncertainty,
	}
	for i, p := range fields {
		if i < len(v) {
			*p = v[i]
		}
	}
	return f
}
