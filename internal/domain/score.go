package domain

import "time"

// DecisionClass is the three-way automated outcome.
type DecisionClass string

const (
	DecisionAutoApprove  DecisionClass = "auto_approve"
	DecisionManualReview DecisionClass = "manual_review"
	DecisionAutoReject   DecisionClass = "auto_reject"
)

// RiskLevel grades how dangerous it is to act on a score automatically.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

var riskOrder = []RiskLevel{RiskVeryLow, RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// Shift moves the risk level up (positive) or down (negative) by n steps,
// saturating at the extremes.
func (r RiskLevel) Shift(n int) RiskLevel {
	idx := 0
	for i, lvl := range riskOrder {
		if lvl == r {
			idx = i
			break
		}
	}
	idx += n
	if idx < 0 {
		idx = 0
	}
	if idx >= len(riskOrder) {
		idx = len(riskOrder) - 1
	}
	return riskOrder[idx]
}

// PredictionInterval is a symmetric uncertainty band around a confidence.
type PredictionInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ConfidenceScore is the externally consumed result of one scoring call.
// Constructed once, immutable, never persisted by the core.
type ConfidenceScore struct {
	PredictionID string `json:"prediction_id"`

	OverallConfidence float64       `json:"overall_confidence"`
	DecisionClass     DecisionClass `json:"decision_class"`
	RiskLevel         RiskLevel     `json:"risk_level"`

	// Diagnostic decomposition, not separately thresholded.
	SimilarityConfidence float64 `json:"similarity_confidence"`
	ContextualConfidence float64 `json:"contextual_confidence"`
	HistoricalConfidence float64 `json:"historical_confidence"`
	TechnicalConfidence  float64 `json:"technical_confidence"`

	PredictionInterval PredictionInterval `json:"prediction_interval"`
	ModelAgreement     float64            `json:"model_agreement"`
	CalibrationScore   float64            `json:"calibration_score"`

	FalsePositiveProb float64 `json:"false_positive_probability"`
	ExpectedCost      float64 `json:"expected_cost"`

	FeatureImportance map[string]float64 `json:"feature_importance"`

	Reasoning string    `json:"reasoning"`
	ScoredAt  time.Time `json:"scored_at"`
}
