package copyshield

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/copyshield/copyshield/internal/domain"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(255 * x / w),
				G: uint8(255 * y / h),
				B: 64,
				A: 255,
			})
		}
	}
	return img
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping without cache should succeed, got %v", err)
	}
	if c.Trained() {
		t.Error("fresh client should start untrained")
	}
	th := c.Thresholds()
	if th.AutoApprove != 0.90 || th.AutoReject != 0.30 {
		t.Errorf("default thresholds: got %+v", th)
	}
}

func TestNew_TranscriptionRequiresOpenAI(t *testing.T) {
	_, err := New(WithTranscription(""))
	if err == nil {
		t.Fatal("expected error: transcription without WithOpenAI")
	}
}

func TestClient_ImagePipeline(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	data := encodePNG(t, gradientImage(64, 64))

	fp, err := c.Fingerprint(ctx, data, ContentTypeImage, "img-orig")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp.ContentID != "img-orig" {
		t.Errorf("content id: got %q", fp.ContentID)
	}
	if fp.PerceptualHash == "" || len(fp.DeepFeatures) == 0 {
		t.Errorf("fingerprint incomplete: %+v", fp)
	}

	ev, err := c.Evaluate(fp, fp, Context{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Match.ConfidenceScore < 0.99 {
		t.Errorf("self-match similarity: got %v, want ~1", ev.Match.ConfidenceScore)
	}
	if ev.Score.PredictionID == "" {
		t.Error("score should carry a prediction id")
	}
	switch ev.Score.DecisionClass {
	case DecisionAutoApprove, DecisionManualReview, DecisionAutoReject:
	default:
		t.Errorf("unexpected decision class %q", ev.Score.DecisionClass)
	}
}

func TestClient_DerivedContentID(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	data := encodePNG(t, gradientImage(32, 32))
	fp1, err := c.Fingerprint(context.Background(), data, ContentTypeImage, "")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fp2, err := c.Fingerprint(context.Background(), data, ContentTypeImage, "")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp1.ContentID == "" || fp1.ContentID != fp2.ContentID {
		t.Errorf("derived ids should be stable: %q vs %q", fp1.ContentID, fp2.ContentID)
	}
}

func TestClient_EvaluateContent_Text(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	original := []byte("the quick brown fox jumps over the lazy dog near the river bank")
	copied := []byte("the quick brown fox jumps over the lazy dog near the river bank")
	unrelated := []byte("quarterly revenue projections exceeded analyst expectations this year")

	evSame, err := c.EvaluateContent(context.Background(), original, copied,
		ContentTypeText, "t-orig", "t-copy", Context{})
	if err != nil {
		t.Fatalf("EvaluateContent same: %v", err)
	}
	evDiff, err := c.EvaluateContent(context.Background(), original, unrelated,
		ContentTypeText, "t-orig", "t-other", Context{})
	if err != nil {
		t.Fatalf("EvaluateContent diff: %v", err)
	}

	if evSame.Match.ConfidenceScore <= evDiff.Match.ConfidenceScore {
		t.Errorf("identical text should outscore unrelated: %v vs %v",
			evSame.Match.ConfidenceScore, evDiff.Match.ConfidenceScore)
	}
}

func TestClient_OutcomeRoundTrip(t *testing.T) {
	c, err := New(WithOutcomeStore(":memory:"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	data := encodePNG(t, gradientImage(48, 48))
	ev, err := c.EvaluateContent(context.Background(), data, data,
		ContentTypeImage, "o", "c", Context{})
	if err != nil {
		t.Fatalf("EvaluateContent: %v", err)
	}

	id, err := c.ReportOutcome(context.Background(), ev.Score.PredictionID,
		ev.Features, ev.Score.DecisionClass, ev.Score.OverallConfidence, true, "reviewer-1")
	if err != nil {
		t.Fatalf("ReportOutcome: %v", err)
	}
	if id == 0 {
		t.Error("outcome id should be assigned")
	}

	// One sample is nowhere near enough to train.
	if _, err := c.Train(context.Background(), 0); !errors.Is(err, domain.ErrInsufficientTrainingData) {
		t.Errorf("expected ErrInsufficientTrainingData, got %v", err)
	}
}

func TestClient_ReportOutcomeWithoutStore(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	_, err = c.ReportOutcome(context.Background(), "pred-1",
		ConfidenceFeatures{}, DecisionManualReview, 0.5, true, "")
	if err == nil {
		t.Fatal("expected error without an outcome store")
	}
}

func TestOptions_Applied(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedisCache("localhost:6379", "secret"),
		WithOpenAI("sk-test", "http://localhost:8000/v1"),
		WithModels("text-model", "image-model"),
		WithTranscription(""),
		WithThresholds(0.95, 0.20),
		WithWorkers(16),
	} {
		o(cfg)
	}

	if cfg.redisAddr != "localhost:6379" || cfg.redisPassword != "secret" {
		t.Errorf("redis options: %+v", cfg)
	}
	if cfg.openAIKey != "sk-test" || cfg.textModel != "text-model" {
		t.Errorf("openai options: %+v", cfg)
	}
	if cfg.transcriptionModel != defaultTranscriptionModel {
		t.Errorf("transcription model: got %q", cfg.transcriptionModel)
	}
	if cfg.thresholds.AutoApprove != 0.95 || cfg.workers != 16 {
		t.Errorf("tuning options: %+v", cfg)
	}
}
