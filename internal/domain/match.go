package domain

// MatchType categorizes how strongly a candidate resembles the original.
type MatchType string

const (
	MatchTypeExact         MatchType = "exact"          // >= 0.95
	MatchTypeNearDuplicate MatchType = "near_duplicate" // >= 0.90
	MatchTypeDerivative    MatchType = "derivative"     // >= 0.80
	MatchTypeSimilar       MatchType = "similar"        // >= 0.70
	MatchTypeNoMatch       MatchType = "no_match"
)

// MatchTypeForScore buckets an aggregate similarity score into a match type.
func MatchTypeForScore(score float64) MatchType {
	switch {
	case score >= 0.95:
		return MatchTypeExact
	case score >= 0.90:
		return MatchTypeNearDuplicate
	case score >= 0.80:
		return MatchTypeDerivative
	case score >= 0.70:
		return MatchTypeSimilar
	}
	return MatchTypeNoMatch
}

// Rank places the match type on a [0,1] scale for use as a model feature.
func (t MatchType) Rank() float64 {
	switch t {
	case MatchTypeExact:
		return 1.0
	case MatchTypeNearDuplicate:
		return 0.9
	case MatchTypeDerivative:
		return 0.8
	case MatchTypeSimilar:
		return 0.7
	}
	return 0
}

// ConfidenceLevel is a display bucket for an aggregate similarity score.
// It never drives the final decision; that belongs to the scoring engine.
type ConfidenceLevel string

const (
	ConfidenceVeryLow  ConfidenceLevel = "very_low"  // < 0.60
	ConfidenceLow      ConfidenceLevel = "low"       // 0.60–0.70
	ConfidenceMedium   ConfidenceLevel = "medium"    // 0.70–0.80
	ConfidenceHigh     ConfidenceLevel = "high"      // 0.80–0.90
	ConfidenceVeryHigh ConfidenceLevel = "very_high" // 0.90–0.95
	ConfidenceExact    ConfidenceLevel = "exact"     // >= 0.95
)

// ConfidenceLevelForScore buckets an aggregate similarity score.
func ConfidenceLevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.95:
		return ConfidenceExact
	case score >= 0.90:
		return ConfidenceVeryHigh
	case score >= 0.80:
		return ConfidenceHigh
	case score >= 0.70:
		return ConfidenceMedium
	case score >= 0.60:
		return ConfidenceLow
	}
	return ConfidenceVeryLow
}

// SimilarityMatch is the result of comparing two fingerprints. The core does
// not persist it; persistence is a caller concern.
type SimilarityMatch struct {
	OriginalContentID string `json:"original_content_id"`
	MatchedContentID  string `json:"matched_content_id"`

	// ConfidenceScore is the weighted aggregate similarity in [0,1].
	ConfidenceScore float64         `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	MatchType       MatchType       `json:"match_type"`

	// SimilarityScores holds per-method scores for methods with data on both
	// sides; absent methods are omitted, never zero-filled.
	SimilarityScores map[string]float64 `json:"similarity_scores"`

	// Provisional text, superseded by the scoring engine's reasoning.
	Reasoning              string `json:"ai_reasoning"`
	DecisionRecommendation string `json:"decision_recommendation"`
}
