// Package scoring turns confidence feature vectors into calibrated decision
// scores. It runs a trained classifier ensemble when artifacts are available
// and a deterministic rule-based fallback otherwise; either way Score never
// fails — any internal error degrades to a conservative manual_review
// result.
package scoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/metrics"
)

// Default decision thresholds.
const (
	DefaultAutoApprove = 0.90
	DefaultAutoReject  = 0.30
)

// Thresholds is the mutable decision threshold pair. AutoApprove must stay
// above AutoReject.
type Thresholds struct {
	AutoApprove float64 `json:"auto_approve"`
	AutoReject  float64 `json:"auto_reject"`
}

// DefaultThresholds returns the configured starting thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoApprove: DefaultAutoApprove, AutoReject: DefaultAutoReject}
}

// Classify is the total, exhaustive decision function: exactly one class for
// every confidence value.
func (t Thresholds) Classify(confidence float64) domain.DecisionClass {
	switch {
	case confidence >= t.AutoApprove:
		return domain.DecisionAutoApprove
	case confidence < t.AutoReject:
		return domain.DecisionAutoReject
	}
	return domain.DecisionManualReview
}

// Config tunes the scoring engine. Zero values take the defaults.
type Config struct {
	Thresholds Thresholds
	Costs      Costs
}

// Engine is the confidence scoring service. The trained ensemble and the
// thresholds are the only shared mutable state; both are guarded so
// concurrent scoring never observes a torn threshold pair or a half-swapped
// ensemble.
type Engine struct {
	mu          sync.RWMutex
	artifacts   *Artifacts // nil or incomplete => fallback mode
	thresholds  Thresholds
	calibration float64

	costs  Costs
	logger *zap.Logger
}

// New creates a scoring engine in untrained (rule-based fallback) mode.
func New(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := cfg.Thresholds
	if t.AutoApprove == 0 {
		t.AutoApprove = DefaultAutoApprove
	}
	if t.AutoReject == 0 {
		t.AutoReject = DefaultAutoReject
	}
	return &Engine{
		thresholds:  t,
		calibration: fallbackCalibration,
		costs:       cfg.Costs.withDefaults(),
		logger:      logger,
	}
}

// RestoreFrom loads persisted artifacts from the store. Missing or partial
// artifacts leave the engine in fallback mode; only unexpected store errors
// are returned, and even those never prevent construction.
func (e *Engine) RestoreFrom(store ArtifactStore) error {
	art, err := store.Load()
	if err != nil {
		e.logger.Warn("model artifacts unavailable, staying in fallback mode", zap.Error(err))
		return fmt.Errorf("load artifacts: %w", err)
	}
	if !art.Complete() {
		e.logger.Warn("model artifacts incomplete, staying in fallback mode")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.artifacts = art
	e.calibration = art.Meta.CalibrationScore
	if art.Meta.AutoApprove > 0 {
		e.thresholds = Thresholds{AutoApprove: art.Meta.AutoApprove, AutoReject: art.Meta.AutoReject}
	}
	e.logger.Info("restored trained ensemble",
		zap.String("model_version", art.Meta.ModelVersion),
		zap.Time("trained_at", art.Meta.TrainedAt),
	)
	return nil
}

// Trained reports whether the engine scores with the trained ensemble.
func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.artifacts.Complete()
}

// CurrentThresholds returns a consistent snapshot of the threshold pair.
func (e *Engine) CurrentThresholds() Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

// SetThresholds replaces both thresholds atomically.
func (e *Engine) SetThresholds(t Thresholds) error {
	if t.AutoApprove <= t.AutoReject {
		return fmt.Errorf("auto_approve %v must exceed auto_reject %v", t.AutoApprove, t.AutoReject)
	}
	if t.AutoApprove > 1 || t.AutoReject < 0 {
		return fmt.Errorf("thresholds %+v outside [0,1]", t)
	}
	e.mu.Lock()
	e.thresholds = t
	e.mu.Unlock()
	return nil
}

// Score converts a feature vector into a confidence score. It never returns
// an error: any internal failure produces the conservative fail-safe result
// (manual_review, high risk).
func (e *Engine) Score(f domain.ConfidenceFeatures) (score *domain.ConfidenceScore) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("scoring panicked, returning fail-safe score", zap.Any("panic", r))
			score = e.failsafe()
		}
	}()

	f = f.Clamped()

	e.mu.RLock()
	art := e.artifacts
	thresholds := e.thresholds
	calibration := e.calibration
	e.mu.RUnlock()

	var (
		overall    float64
		agreement  float64
		margin     float64
		importance map[string]float64
		mode       string
	)
	if art.Complete() {
		overall, agreement, margin, importance = e.ensembleScore(art, f)
		mode = "ensemble"
	} else {
		overall, importance = ruleScore(f)
		agreement = fallbackAgreement
		margin = fallbackMargin
		mode = "fallback"
	}
	overall = clamp01(overall)

	decision := thresholds.Classify(overall)
	uncertainty := uncertaintySignal(f)
	risk := riskLevel(overall, uncertainty)
	fpProb := falsePositiveProbability(overall, uncertainty)

	metrics.DecisionsTotal.WithLabelValues(string(decision), mode).Inc()

	return &domain.ConfidenceScore{
		PredictionID:      uuid.NewString(),
		OverallConfidence: overall,
		DecisionClass:     decision,
		RiskLevel:         risk,

		SimilarityConfidence: similarityConfidence(f),
		ContextualConfidence: contextualConfidence(f),
		HistoricalConfidence: historicalConfidence(f),
		TechnicalConfidence:  technicalConfidence(f),

		PredictionInterval: domain.PredictionInterval{
			Lower: clamp01(overall - margin),
			Upper: clamp01(overall + margin),
		},
		ModelAgreement:   agreement,
		CalibrationScore: calibration,

		FalsePositiveProb: fpProb,
		ExpectedCost:      e.costs.Expected(decision, overall, fpProb),

		FeatureImportance: importance,
		Reasoning:         scoreReasoning(mode, overall, decision, risk, f),
		ScoredAt:          time.Now().UTC(),
	}
}

// failsafe is the hard-required conservative result for scoring failures.
func (e *Engine) failsafe() *domain.ConfidenceScore {
	metrics.DecisionsTotal.WithLabelValues(string(domain.DecisionManualReview), "failsafe").Inc()
	return &domain.ConfidenceScore{
		PredictionID:      uuid.NewString(),
		OverallConfidence: 0.5,
		DecisionClass:     domain.DecisionManualReview,
		RiskLevel:         domain.RiskHigh,

		SimilarityConfidence: 0.5,
		ContextualConfidence: 0.5,
		HistoricalConfidence: 0.5,
		TechnicalConfidence:  0.5,

		PredictionInterval: domain.PredictionInterval{Lower: 0, Upper: 1},
		ModelAgreement:     0,
		CalibrationScore:   0,

		FalsePositiveProb: 0.5,
		ExpectedCost:      e.costs.Processing[domain.DecisionManualReview],

		FeatureImportance: map[string]float64{},
		Reasoning:         "a system error occurred during scoring; routed to manual review as a precaution",
		ScoredAt:          time.Now().UTC(),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
