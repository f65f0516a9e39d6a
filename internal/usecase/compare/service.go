// Package compare pairwise-compares content fingerprints into similarity
// matches.
package compare

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/hash"
	"github.com/copyshield/copyshield/internal/metrics"
)

// MethodWeights is the fixed aggregation weight table. Weights of absent
// methods are excluded and the remainder is deliberately NOT renormalized:
// missing modalities lower the achievable aggregate, so a partial
// fingerprint cannot reach high confidence from one strong signal alone.
var MethodWeights = map[string]float64{
	domain.MethodDeepFeatures:   0.30,
	domain.MethodPerceptualHash: 0.25,
	domain.MethodAverageHash:    0.10,
	domain.MethodDifferenceHash: 0.10,
	domain.MethodWaveletHash:    0.10,
	domain.MethodColorHash:      0.10,
	domain.MethodTextSimilarity: 0.05,
}

// Service compares fingerprints. Stateless and safe for concurrent use.
type Service struct {
	workers int
}

// New creates a comparator. workers bounds CompareBatch concurrency.
func New(workers int) *Service {
	if workers <= 0 {
		workers = 8
	}
	return &Service{workers: workers}
}

// Compare scores candidate against original. Cross-type comparison is never
// attempted; it short-circuits to a no_match result with zero confidence.
func (s *Service) Compare(original, candidate *domain.ContentFingerprint) (*domain.SimilarityMatch, error) {
	if original == nil || candidate == nil {
		return nil, fmt.Errorf("%w: nil fingerprint", domain.ErrMalformedMatch)
	}

	if original.ContentType != candidate.ContentType {
		m := &domain.SimilarityMatch{
			OriginalContentID: original.ContentID,
			MatchedContentID:  candidate.ContentID,
			ConfidenceScore:   0,
			ConfidenceLevel:   domain.ConfidenceVeryLow,
			MatchType:         domain.MatchTypeNoMatch,
			SimilarityScores:  map[string]float64{},
			Reasoning: fmt.Sprintf("cross-type comparison (%s vs %s) is not meaningful; returning no_match",
				original.ContentType, candidate.ContentType),
			DecisionRecommendation: "discard",
		}
		metrics.ComparisonsTotal.WithLabelValues(string(m.MatchType)).Inc()
		return m, nil
	}

	scores := map[string]float64{}

	origHashes := original.HashFields()
	for method, h := range candidate.HashFields() {
		if h == "" || origHashes[method] == "" {
			continue
		}
		// Audio and text fill the hash slots with content digests, which
		// carry no bit-level structure: score them by equality so two
		// unrelated digests contribute 0 instead of coin-flip Hamming noise.
		if digestSlots(original.ContentType) {
			scores[method] = equalityScore(origHashes[method], h)
			continue
		}
		scores[method] = hash.Similarity(origHashes[method], h)
	}

	if sim, ok := cosineSimilarity(original.DeepFeatures, candidate.DeepFeatures); ok {
		scores[domain.MethodDeepFeatures] = sim
	}
	if sim, ok := cosineSimilarity(original.TextEmbeddings, candidate.TextEmbeddings); ok {
		scores[domain.MethodTextSimilarity] = sim
	}
	if sim, ok := cosineSimilarity(original.AudioFeatures, candidate.AudioFeatures); ok {
		// Audio features share the deep-vector weight slot; a fingerprint
		// never carries both.
		if _, exists := scores[domain.MethodDeepFeatures]; !exists {
			scores[domain.MethodDeepFeatures] = sim
		}
	}

	var aggregate float64
	for method, score := range scores {
		aggregate += score * MethodWeights[method]
	}
	if aggregate > 1 {
		aggregate = 1
	}

	// Exact-duplicate short circuit: when every comparable method agrees at
	// the ceiling, the pair is a byte-or-perceptually identical copy and the
	// missing-modality discount must not drag it below the exact bucket.
	if len(scores) > 0 && allAtCeiling(scores) {
		aggregate = 1
	}

	matchType := domain.MatchTypeForScore(aggregate)
	m := &domain.SimilarityMatch{
		OriginalContentID:      original.ContentID,
		MatchedContentID:       candidate.ContentID,
		ConfidenceScore:        aggregate,
		ConfidenceLevel:        domain.ConfidenceLevelForScore(aggregate),
		MatchType:              matchType,
		SimilarityScores:       scores,
		Reasoning:              reasoning(matchType, aggregate, scores),
		DecisionRecommendation: recommendation(matchType),
	}
	metrics.ComparisonsTotal.WithLabelValues(string(m.MatchType)).Inc()
	return m, nil
}

// CompareBatch compares one reference against many candidates with bounded
// concurrency. Results are positional; a nil candidate yields a nil result
// and a positional error.
func (s *Service) CompareBatch(
	ctx context.Context, original *domain.ContentFingerprint, candidates []*domain.ContentFingerprint,
) ([]*domain.SimilarityMatch, []error) {
	matches := make([]*domain.SimilarityMatch, len(candidates))
	errs := make([]error, len(candidates))

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand *domain.ContentFingerprint) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-sem }()
			matches[i], errs[i] = s.Compare(original, cand)
		}(i, cand)
	}
	wg.Wait()
	return matches, errs
}

// digestSlots reports whether the content type stores content digests, not
// perceptual hashes, in its hash fields.
func digestSlots(ct domain.ContentType) bool {
	return ct == domain.ContentTypeAudio || ct == domain.ContentTypeText
}

func equalityScore(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}

func allAtCeiling(scores map[string]float64) bool {
	for _, s := range scores {
		if s < 0.995 {
			return false
		}
	}
	return true
}

// cosineSimilarity returns the cosine of two same-domain vectors clamped to
// [0,1]; negative cosine is treated as zero similarity. ok is false when
// either vector is absent or the dimensions differ.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, true
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		cos = 0
	}
	if cos > 1 {
		cos = 1
	}
	return cos, true
}

// reasoning cites the top contributing methods by score.
func reasoning(matchType domain.MatchType, aggregate float64, scores map[string]float64) string {
	if len(scores) == 0 {
		return "no comparable methods between fingerprints"
	}

	type ms struct {
		method string
		score  float64
	}
	ranked := make([]ms, 0, len(scores))
	for m, sc := range scores {
		ranked = append(ranked, ms{m, sc})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	parts := make([]string, 0, len(ranked))
	for _, r := range ranked {
		parts = append(parts, fmt.Sprintf("%s=%.2f", r.method, r.score))
	}
	return fmt.Sprintf("classified %s (aggregate %.2f); strongest signals: %s",
		matchType, aggregate, strings.Join(parts, ", "))
}

func recommendation(matchType domain.MatchType) string {
	switch matchType {
	case domain.MatchTypeExact, domain.MatchTypeNearDuplicate:
		return "likely infringement, proceed to confidence scoring"
	case domain.MatchTypeDerivative, domain.MatchTypeSimilar:
		return "possible derivative, confidence scoring required"
	}
	return "discard"
}
