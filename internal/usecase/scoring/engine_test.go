package scoring

import (
	"errors"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/ml"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Config{}, zap.NewNop())
}

func TestClassify_TotalAndExhaustive(t *testing.T) {
	thresholds := Thresholds{AutoApprove: 0.90, AutoReject: 0.30}
	for _, tc := range []struct {
		confidence float64
		want       domain.DecisionClass
	}{
		{0.0, domain.DecisionAutoReject},
		{0.2999, domain.DecisionAutoReject},
		{0.30, domain.DecisionManualReview},
		{0.5, domain.DecisionManualReview},
		{0.8999, domain.DecisionManualReview},
		{0.90, domain.DecisionAutoApprove},
		{1.0, domain.DecisionAutoApprove},
	} {
		if got := thresholds.Classify(tc.confidence); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestClassify_RaisingApproveThresholdOnlyDemotes(t *testing.T) {
	low := Thresholds{AutoApprove: 0.85, AutoReject: 0.30}
	high := Thresholds{AutoApprove: 0.92, AutoReject: 0.30}

	for conf := 0.0; conf <= 1.0; conf += 0.01 {
		before := low.Classify(conf)
		after := high.Classify(conf)
		if before == domain.DecisionManualReview && after == domain.DecisionAutoApprove {
			t.Fatalf("raising the threshold promoted %v from review to approve", conf)
		}
		if before == after {
			continue
		}
		if !(before == domain.DecisionAutoApprove && after == domain.DecisionManualReview) {
			t.Fatalf("raising the threshold moved %v from %s to %s", conf, before, after)
		}
	}
}

func TestScore_UntrainedMaxExceedsMin(t *testing.T) {
	e := newEngine(t)

	maxF := domain.FromVector(func() []float64 {
		v := make([]float64, domain.FeatureCount)
		for i := range v {
			v[i] = 1
		}
		return v
	}())
	minF := domain.FromVector(make([]float64, domain.FeatureCount))

	hi := e.Score(maxF)
	lo := e.Score(minF)
	if hi.OverallConfidence <= lo.OverallConfidence {
		t.Errorf("max features %v should strictly exceed min features %v",
			hi.OverallConfidence, lo.OverallConfidence)
	}
}

func TestScore_NeverThrowsOnGarbage(t *testing.T) {
	e := newEngine(t)

	vectors := []domain.ConfidenceFeatures{
		{},
		domain.NewConfidenceFeatures(),
		domain.FromVector([]float64{-5, 99, 0.5}),
		{PerceptualHashScore: 47, ModelUncertainty: -12, ContentAgeDays: 1e9},
	}
	for i, f := range vectors {
		s := e.Score(f)
		if s == nil {
			t.Fatalf("vector %d: nil score", i)
		}
		assertWellFormed(t, s)
	}
}

func assertWellFormed(t *testing.T, s *domain.ConfidenceScore) {
	t.Helper()
	inUnit := func(name string, v float64) {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v outside [0,1]", name, v)
		}
	}
	inUnit("overall_confidence", s.OverallConfidence)
	inUnit("similarity_confidence", s.SimilarityConfidence)
	inUnit("contextual_confidence", s.ContextualConfidence)
	inUnit("historical_confidence", s.HistoricalConfidence)
	inUnit("technical_confidence", s.TechnicalConfidence)
	inUnit("model_agreement", s.ModelAgreement)
	inUnit("calibration_score", s.CalibrationScore)
	inUnit("interval_lower", s.PredictionInterval.Lower)
	inUnit("interval_upper", s.PredictionInterval.Upper)
	if s.PredictionInterval.Lower > s.PredictionInterval.Upper {
		t.Errorf("inverted interval %+v", s.PredictionInterval)
	}
	if s.FalsePositiveProb <= 0 || s.FalsePositiveProb >= 1 {
		t.Errorf("false_positive_probability = %v outside (0,1)", s.FalsePositiveProb)
	}
	if s.ExpectedCost < 0 {
		t.Errorf("expected_cost = %v negative", s.ExpectedCost)
	}
	switch s.DecisionClass {
	case domain.DecisionAutoApprove, domain.DecisionManualReview, domain.DecisionAutoReject:
	default:
		t.Errorf("unknown decision class %q", s.DecisionClass)
	}
	if s.Reasoning == "" {
		t.Error("score must carry reasoning")
	}
	if s.PredictionID == "" {
		t.Error("score must carry a prediction ID")
	}
}

// The documented boundary case: strong perceptual and deep scores alone must
// not clear the default approve threshold once missing-modality
// non-renormalization is applied.
func TestScore_BoundaryCaseLandsInManualReview(t *testing.T) {
	e := newEngine(t)

	f := domain.NewConfidenceFeatures()
	f.PerceptualHashScore = 0.92
	f.DeepFeaturesScore = 0.88
	f.PlatformReliability = 0.9
	f.OverallSimilarity = 0.92*0.25 + 0.88*0.30
	f.MatchTypeRank = domain.MatchTypeForScore(f.OverallSimilarity).Rank()

	s := e.Score(f)
	if s.DecisionClass != domain.DecisionManualReview {
		t.Errorf("decision = %s (confidence %v), want manual_review",
			s.DecisionClass, s.OverallConfidence)
	}
	if s.OverallConfidence >= DefaultAutoApprove {
		t.Errorf("confidence %v should fall below the approve threshold %v",
			s.OverallConfidence, DefaultAutoApprove)
	}
}

func TestScore_RiskShiftsOnUncertainty(t *testing.T) {
	e := newEngine(t)

	reliable := domain.NewConfidenceFeatures()
	reliable.PerceptualHashScore = 0.9
	reliable.DeepFeaturesScore = 0.9
	reliable.ModelUncertainty = 0.0
	reliable.ProcessingQuality = 1.0
	reliable.ExtractionConfidence = 1.0
	reliable.SourceCredibility = 1.0

	unreliable := reliable
	unreliable.ModelUncertainty = 0.9
	unreliable.ProcessingQuality = 0.4
	unreliable.ExtractionConfidence = 0.4
	unreliable.SourceCredibility = 0.3

	rs := e.Score(reliable)
	us := e.Score(unreliable)

	// Same similarity signals, different reliability: the unreliable request
	// must never land in a lower risk bucket.
	order := map[domain.RiskLevel]int{
		domain.RiskVeryLow: 0, domain.RiskLow: 1, domain.RiskMedium: 2,
		domain.RiskHigh: 3, domain.RiskVeryHigh: 4,
	}
	if order[us.RiskLevel] <= order[rs.RiskLevel] {
		t.Errorf("unreliable risk %s should exceed reliable risk %s", us.RiskLevel, rs.RiskLevel)
	}
}

func TestScore_FailsafeOnBrokenEnsemble(t *testing.T) {
	e := newEngine(t)

	// A structurally complete ensemble whose linear member rejects the
	// feature width: prediction panics internally and must degrade to the
	// fail-safe result instead of propagating.
	scaler := &ml.StandardScaler{Mean: []float64{0}, Std: []float64{1}}
	logistic := &ml.LogisticRegression{Weights: []float64{1, 2, 3}}
	forest := ml.NewRandomForest()
	boost := ml.NewGradientBoost()
	samples, labels := trainingMatrix(30)
	if err := forest.Train(samples, labels); err != nil {
		t.Fatalf("forest: %v", err)
	}
	if err := boost.Train(samples, labels); err != nil {
		t.Fatalf("boost: %v", err)
	}
	e.artifacts = &Artifacts{Forest: forest, Boost: boost, Logistic: logistic, Scaler: scaler}

	s := e.Score(domain.NewConfidenceFeatures())
	if s.DecisionClass != domain.DecisionManualReview {
		t.Errorf("failsafe decision = %s, want manual_review", s.DecisionClass)
	}
	if s.RiskLevel != domain.RiskHigh {
		t.Errorf("failsafe risk = %s, want high", s.RiskLevel)
	}
	if s.Reasoning == "" {
		t.Error("failsafe must state that a system error occurred")
	}
}

func trainingMatrix(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(3))
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := range features {
		label := i % 2
		f := domain.NewConfidenceFeatures()
		if label == 1 {
			f.PerceptualHashScore = 0.9 + rng.Float64()*0.1
			f.DeepFeaturesScore = 0.85 + rng.Float64()*0.1
			f.OverallSimilarity = 0.9
		} else {
			f.PerceptualHashScore = rng.Float64() * 0.3
			f.DeepFeaturesScore = rng.Float64() * 0.3
			f.OverallSimilarity = 0.2
		}
		features[i] = f.Vector()
		labels[i] = label
	}
	return features, labels
}

func TestTrain_SwitchesToEnsembleMode(t *testing.T) {
	e := newEngine(t)
	if e.Trained() {
		t.Fatal("fresh engine should be untrained")
	}

	samples := labeledSamples(60)
	report, err := e.Train(samples, nil)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !e.Trained() {
		t.Fatal("engine should be in trained mode")
	}
	if report.Samples != 60 || report.Positives != 30 {
		t.Errorf("report %+v", report)
	}
	if report.CalibrationScore <= 0.5 {
		t.Errorf("calibration %v suspiciously low for separable data", report.CalibrationScore)
	}

	hi := e.Score(labeledSamples(2)[1].Features) // positive-shaped
	lo := e.Score(labeledSamples(2)[0].Features) // negative-shaped
	if hi.OverallConfidence <= lo.OverallConfidence {
		t.Errorf("trained ensemble did not separate: %v vs %v", hi.OverallConfidence, lo.OverallConfidence)
	}
	assertWellFormed(t, hi)
	assertWellFormed(t, lo)
}

func labeledSamples(n int) []LabeledSample {
	rng := rand.New(rand.NewSource(11))
	out := make([]LabeledSample, n)
	for i := range out {
		f := domain.NewConfidenceFeatures()
		infringing := i%2 == 1
		if infringing {
			f.PerceptualHashScore = 0.88 + rng.Float64()*0.12
			f.DeepFeaturesScore = 0.85 + rng.Float64()*0.12
			f.AverageHashScore = 0.9
			f.OverallSimilarity = 0.9
			f.MatchTypeRank = 0.9
		} else {
			f.PerceptualHashScore = rng.Float64() * 0.35
			f.DeepFeaturesScore = rng.Float64() * 0.35
			f.OverallSimilarity = 0.2
		}
		out[i] = LabeledSample{Features: f, Infringing: infringing}
	}
	return out
}

func TestTrain_InsufficientData(t *testing.T) {
	e := newEngine(t)
	_, err := e.Train(labeledSamples(3), nil)
	if !errors.Is(err, domain.ErrInsufficientTrainingData) {
		t.Errorf("expected ErrInsufficientTrainingData, got %v", err)
	}
	if e.Trained() {
		t.Error("engine must stay untrained after failed training")
	}
}

func TestSetThresholds_Validation(t *testing.T) {
	e := newEngine(t)
	if err := e.SetThresholds(Thresholds{AutoApprove: 0.5, AutoReject: 0.6}); err == nil {
		t.Error("inverted thresholds should be rejected")
	}
	if err := e.SetThresholds(Thresholds{AutoApprove: 1.2, AutoReject: 0.3}); err == nil {
		t.Error("out-of-range thresholds should be rejected")
	}
	if err := e.SetThresholds(Thresholds{AutoApprove: 0.85, AutoReject: 0.25}); err != nil {
		t.Errorf("valid thresholds rejected: %v", err)
	}
	got := e.CurrentThresholds()
	if got.AutoApprove != 0.85 || got.AutoReject != 0.25 {
		t.Errorf("thresholds not applied: %+v", got)
	}
}

func TestOptimizeThresholds(t *testing.T) {
	e := newEngine(t)
	samples := labeledSamples(80)

	thresholds, err := e.OptimizeThresholds(samples)
	if err != nil {
		t.Fatalf("OptimizeThresholds: %v", err)
	}
	if thresholds.AutoApprove < optimizeLow || thresholds.AutoApprove > optimizeHigh {
		t.Errorf("approve threshold %v outside search bounds", thresholds.AutoApprove)
	}
	if thresholds.AutoReject < rejectFloor {
		t.Errorf("reject threshold %v under floor", thresholds.AutoReject)
	}
	if thresholds.AutoReject >= thresholds.AutoApprove {
		t.Errorf("review band collapsed: %+v", thresholds)
	}
	if got := e.CurrentThresholds(); got != thresholds {
		t.Errorf("thresholds not applied atomically: %+v vs %+v", got, thresholds)
	}

	if _, err := e.OptimizeThresholds(nil); !errors.Is(err, domain.ErrInsufficientTrainingData) {
		t.Errorf("expected ErrInsufficientTrainingData for empty set, got %v", err)
	}
}

func TestGoldenSection_FindsMinimum(t *testing.T) {
	min := goldenSection(func(x float64) float64 { return (x - 0.83) * (x - 0.83) }, 0.7, 0.99, 1e-6)
	if min < 0.8299 || min > 0.8301 {
		t.Errorf("golden section minimum = %v, want ~0.83", min)
	}
}

func TestCosts_Expected(t *testing.T) {
	c := DefaultCosts()
	review := c.Expected(domain.DecisionManualReview, 0.5, 0.2)
	if review != 25 {
		t.Errorf("review cost = %v, want processing-only 25", review)
	}
	approve := c.Expected(domain.DecisionAutoApprove, 0.95, 0.01)
	if approve != 1+0.01*120 {
		t.Errorf("approve cost = %v", approve)
	}
	reject := c.Expected(domain.DecisionAutoReject, 0.2, 0.4)
	if reject != 2+0.2*40 {
		t.Errorf("reject cost = %v", reject)
	}
}
