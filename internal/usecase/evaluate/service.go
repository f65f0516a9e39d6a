// Package evaluate runs the full detection pipeline: fingerprint, compare,
// assemble features, score. It is the composition point the HTTP server, the
// CLI, and the SDK facade all drive.
package evaluate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/usecase/compare"
	"github.com/copyshield/copyshield/internal/usecase/features"
	"github.com/copyshield/copyshield/internal/usecase/fingerprint"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
)

// FingerprintCache is the optional fingerprint persistence consumed by the
// pipeline (ISP). Get treats every failure as a miss.
type FingerprintCache interface {
	Get(ctx context.Context, contentID string) (*domain.ContentFingerprint, bool)
	Put(ctx context.Context, fp *domain.ContentFingerprint) error
}

// OutcomeRecorder persists reviewed ground truth.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, predictionID string, f domain.ConfidenceFeatures,
		predicted domain.DecisionClass, confidence float64, infringing bool, reviewedBy string) (int64, error)
	TrainingSet(ctx context.Context, limit int) ([]scoring.LabeledSample, error)
}

// Evaluation is the pipeline output for one original/candidate pair. Features
// are included so reviewers can report ground truth for retraining without
// the service holding per-prediction state.
type Evaluation struct {
	Match    *domain.SimilarityMatch   `json:"match"`
	Score    *domain.ConfidenceScore   `json:"score"`
	Features domain.ConfidenceFeatures `json:"features"`
}

// Service wires the pipeline stages together.
type Service struct {
	fingerprints *fingerprint.Service
	comparator   *compare.Service
	assembler    *features.Assembler
	engine       *scoring.Engine
	cache        FingerprintCache // optional
	outcomes     OutcomeRecorder  // optional
	artifacts    scoring.ArtifactStore
	logger       *zap.Logger
}

// New creates the pipeline service. cache, outcomes and artifacts may be nil;
// the corresponding operations then degrade (no caching, ErrPredictionNotFound
// on outcome reports, no artifact persistence).
func New(
	fingerprints *fingerprint.Service,
	comparator *compare.Service,
	assembler *features.Assembler,
	engine *scoring.Engine,
	cache FingerprintCache,
	outcomes OutcomeRecorder,
	artifacts scoring.ArtifactStore,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fingerprints: fingerprints,
		comparator:   comparator,
		assembler:    assembler,
		engine:       engine,
		cache:        cache,
		outcomes:     outcomes,
		artifacts:    artifacts,
		logger:       logger,
	}
}

// Fingerprint builds (or retrieves from cache) a fingerprint for one piece of
// content.
func (s *Service) Fingerprint(
	ctx context.Context, src fingerprint.Source, contentType domain.ContentType, contentID string,
) (*domain.ContentFingerprint, error) {
	if contentID != "" && s.cache != nil {
		if fp, ok := s.cache.Get(ctx, contentID); ok && fp.ContentType == contentType {
			return fp, nil
		}
	}

	fp, err := s.fingerprints.Build(ctx, src, contentType, contentID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, fp); err != nil {
			s.logger.Warn("failed to cache fingerprint",
				zap.String("content_id", fp.ContentID), zap.Error(err))
		}
	}
	return fp, nil
}

// Compare scores one fingerprint pair.
func (s *Service) Compare(original, candidate *domain.ContentFingerprint) (*domain.SimilarityMatch, error) {
	return s.comparator.Compare(original, candidate)
}

// CompareBatch scores one original against many candidates.
func (s *Service) CompareBatch(
	ctx context.Context, original *domain.ContentFingerprint, candidates []*domain.ContentFingerprint,
) ([]*domain.SimilarityMatch, []error) {
	return s.comparator.CompareBatch(ctx, original, candidates)
}

// Evaluate runs compare + feature assembly + scoring for a fingerprint pair.
func (s *Service) Evaluate(
	original, candidate *domain.ContentFingerprint, fctx features.Context,
) (*Evaluation, error) {
	match, err := s.comparator.Compare(original, candidate)
	if err != nil {
		return nil, err
	}

	f, err := s.assembler.Assemble(match, original.ContentType, fctx)
	if err != nil {
		return nil, err
	}

	score := s.engine.Score(f)
	return &Evaluation{Match: match, Score: score, Features: f}, nil
}

// EvaluateContent fingerprints both sides, then evaluates them.
func (s *Service) EvaluateContent(
	ctx context.Context,
	original, candidate fingerprint.Source,
	contentType domain.ContentType,
	originalID, candidateID string,
	fctx features.Context,
) (*Evaluation, error) {
	origFP, err := s.Fingerprint(ctx, original, contentType, originalID)
	if err != nil {
		return nil, fmt.Errorf("fingerprint original: %w", err)
	}
	candFP, err := s.Fingerprint(ctx, candidate, contentType, candidateID)
	if err != nil {
		return nil, fmt.Errorf("fingerprint candidate: %w", err)
	}
	return s.Evaluate(origFP, candFP, fctx)
}

// ReportOutcome records a reviewed verdict for a prediction.
func (s *Service) ReportOutcome(
	ctx context.Context, predictionID string, f domain.ConfidenceFeatures,
	predicted domain.DecisionClass, confidence float64, infringing bool, reviewedBy string,
) (int64, error) {
	if s.outcomes == nil {
		return 0, fmt.Errorf("no outcome store configured")
	}
	return s.outcomes.RecordOutcome(ctx, predictionID, f, predicted, confidence, infringing, reviewedBy)
}

// Train retrains the scoring ensemble from recorded ground truth.
func (s *Service) Train(ctx context.Context, limit int) (scoring.TrainReport, error) {
	samples, err := s.trainingSamples(ctx, limit)
	if err != nil {
		return scoring.TrainReport{}, err
	}
	return s.engine.Train(samples, s.artifacts)
}

// OptimizeThresholds re-derives decision thresholds from recorded ground
// truth.
func (s *Service) OptimizeThresholds(ctx context.Context, limit int) (scoring.Thresholds, error) {
	samples, err := s.trainingSamples(ctx, limit)
	if err != nil {
		return scoring.Thresholds{}, err
	}
	return s.engine.OptimizeThresholds(samples)
}

// Thresholds returns the current decision thresholds.
func (s *Service) Thresholds() scoring.Thresholds { return s.engine.CurrentThresholds() }

// SetThresholds overrides the decision thresholds.
func (s *Service) SetThresholds(t scoring.Thresholds) error { return s.engine.SetThresholds(t) }

// Trained reports whether the ensemble path is active.
func (s *Service) Trained() bool { return s.engine.Trained() }

func (s *Service) trainingSamples(ctx context.Context, limit int) ([]scoring.LabeledSample, error) {
	if s.outcomes == nil {
		return nil, fmt.Errorf("%w: no outcome store configured", domain.ErrInsufficientTrainingData)
	}
	samples, err := s.outcomes.TrainingSet(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load training set: %w", err)
	}
	return samples, nil
}
