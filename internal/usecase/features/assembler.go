// Package features maps similarity matches plus caller-supplied context into
// the fixed-order confidence feature vector.
package features

import (
	"fmt"

	"github.com/copyshield/copyshield/internal/domain"
)

// Context carries the external signals a caller may know about a match.
// Pointer fields distinguish "not supplied" (documented default applies)
// from a supplied zero. The assembler never fails on missing context.
type Context struct {
	PlatformReliability *float64 `json:"platform_reliability,omitempty"`
	SourceCredibility   *float64 `json:"source_credibility,omitempty"`
	CreatorHistoryScore *float64 `json:"creator_history_score,omitempty"`
	PlatformSuccessRate *float64 `json:"platform_success_rate,omitempty"`
	ContentAgeDays      *float64 `json:"content_age_days,omitempty"`
	SimilarMatchCount   *int     `json:"similar_match_count,omitempty"`
	ContentPopularity   *float64 `json:"content_popularity,omitempty"`

	ScanConfidence       *float64 `json:"scan_confidence,omitempty"`
	ProcessingQuality    *float64 `json:"processing_quality,omitempty"`
	ExtractionConfidence *float64 `json:"extraction_confidence,omitempty"`
	ModelUncertainty     *float64 `json:"model_uncertainty,omitempty"`
}

// Normalization caps for open-ended context signals.
const (
	ageNormDays    = 365.0
	matchCountNorm = 10.0
)

// Assembler builds ConfidenceFeatures vectors. Stateless.
type Assembler struct{}

// New creates a feature assembler.
func New() *Assembler { return &Assembler{} }

// Assemble maps a similarity match and optional context into the fixed-width
// feature vector. It fails only on a malformed match, never on missing
// context.
func (a *Assembler) Assemble(
	match *domain.SimilarityMatch, contentType domain.ContentType, ctx Context,
) (domain.ConfidenceFeatures, error) {
	if match == nil {
		return domain.ConfidenceFeatures{}, fmt.Errorf("%w: nil match", domain.ErrMalformedMatch)
	}
	if match.SimilarityScores == nil {
		return domain.ConfidenceFeatures{}, fmt.Errorf("%w: nil similarity scores", domain.ErrMalformedMatch)
	}
	if match.ConfidenceScore < 0 || match.ConfidenceScore > 1 {
		return domain.ConfidenceFeatures{}, fmt.Errorf("%w: aggregate %v outside [0,1]",
			domain.ErrMalformedMatch, match.ConfidenceScore)
	}

	f := domain.NewConfidenceFeatures()

	f.PerceptualHashScore = match.SimilarityScores[domain.MethodPerceptualHash]
	f.AverageHashScore = match.SimilarityScores[domain.MethodAverageHash]
	f.DifferenceHashScore = match.SimilarityScores[domain.MethodDifferenceHash]
	f.WaveletHashScore = match.SimilarityScores[domain.MethodWaveletHash]
	f.ColorHashScore = match.SimilarityScores[domain.MethodColorHash]
	f.DeepFeaturesScore = match.SimilarityScores[domain.MethodDeepFeatures]
	f.TextSimilarityScore = match.SimilarityScores[domain.MethodTextSimilarity]

	f.OverallSimilarity = match.ConfidenceScore
	f.MatchTypeRank = match.MatchType.Rank()
	f.MethodCoverage = float64(len(match.SimilarityScores)) / float64(len(domain.MethodNames))
	f.ContentTypeRank = contentType.Rank()

	applyFloat(&f.PlatformReliability, ctx.PlatformReliability)
	applyFloat(&f.SourceCredibility, ctx.SourceCredibility)
	applyFloat(&f.CreatorHistoryScore, ctx.CreatorHistoryScore)
	applyFloat(&f.PlatformSuccessRate, ctx.PlatformSuccessRate)
	applyFloat(&f.ContentPopularity, ctx.ContentPopularity)
	applyFloat(&f.ScanConfidence, ctx.ScanConfidence)
	applyFloat(&f.ProcessingQuality, ctx.ProcessingQuality)
	applyFloat(&f.ExtractionConfidence, ctx.ExtractionConfidence)
	applyFloat(&f.ModelUncertainty, ctx.ModelUncertainty)

	if ctx.ContentAgeDays != nil {
		f.ContentAgeDays = *ctx.ContentAgeDays / ageNormDays
	}
	if ctx.SimilarMatchCount != nil {
		f.SimilarMatchCount = float64(*ctx.SimilarMatchCount) / matchCountNorm
	}

	return f.Clamped(), nil
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// Float is a convenience for building Context literals.
func Float(v float64) *float64 { return &v }

// Int is a convenience for building Context literals.
func Int(v int) *int { return &v }
