package compare

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/hash"
)

func audioFingerprint(id string, data []byte, features []float32) *domain.ContentFingerprint {
	d := hash.Digest(data)
	return &domain.ContentFingerprint{
		ContentID:      id,
		ContentType:    domain.ContentTypeAudio,
		PerceptualHash: d,
		AverageHash:    d,
		DifferenceHash: d,
		WaveletHash:    d,
		ColorHash:      d,
		AudioFeatures:  features,
		CreatedAt:      time.Now(),
	}
}

func imageFingerprint(id string, fill byte, deep []float32) *domain.ContentFingerprint {
	h := strings.Repeat(string([]byte{hexDigit(fill >> 4), hexDigit(fill & 0xf)}), 32)
	return &domain.ContentFingerprint{
		ContentID:      id,
		ContentType:    domain.ContentTypeImage,
		PerceptualHash: h,
		AverageHash:    h,
		DifferenceHash: h,
		WaveletHash:    h,
		ColorHash:      h,
		DeepFeatures:   deep,
		CreatedAt:      time.Now(),
	}
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + b - 10
}

func TestCompare_SelfIsExact(t *testing.T) {
	svc := New(4)
	fp := imageFingerprint("a", 0xa5, []float32{0.1, 0.5, 0.9})

	m, err := svc.Compare(fp, fp)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.ConfidenceScore < 0.99 {
		t.Errorf("self comparison confidence = %v, want >= 0.99", m.ConfidenceScore)
	}
	if m.MatchType != domain.MatchTypeExact {
		t.Errorf("self comparison match type = %s, want exact", m.MatchType)
	}
}

func TestCompare_CrossTypeIsNoMatch(t *testing.T) {
	svc := New(4)
	img := imageFingerprint("img", 0xff, nil)
	audio := &domain.ContentFingerprint{
		ContentID:      "aud",
		ContentType:    domain.ContentTypeAudio,
		PerceptualHash: img.PerceptualHash, // numeric coincidence must not matter
		AverageHash:    img.AverageHash,
		DifferenceHash: img.DifferenceHash,
		WaveletHash:    img.WaveletHash,
		ColorHash:      img.ColorHash,
	}

	m, err := svc.Compare(img, audio)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.MatchType != domain.MatchTypeNoMatch {
		t.Errorf("match type = %s, want no_match", m.MatchType)
	}
	if m.ConfidenceScore != 0 {
		t.Errorf("confidence = %v, want 0", m.ConfidenceScore)
	}
	if len(m.SimilarityScores) != 0 {
		t.Errorf("cross-type comparison should compute no method scores")
	}
	if m.Reasoning == "" {
		t.Error("cross-type no_match must carry explicit reasoning")
	}
}

func TestCompare_MissingModalityNotRenormalized(t *testing.T) {
	svc := New(4)
	// Hash-only fingerprints with one hash disagreeing: present methods
	// cannot be renormalized to fill the absent deep/text weight.
	a := imageFingerprint("a", 0x00, nil)
	b := imageFingerprint("b", 0x00, nil)
	b.ColorHash = strings.Repeat("ff", 32) // opposite

	m, err := svc.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	// 4 hashes at 1.0 (0.25+0.1+0.1+0.1) + color at 0.0 = 0.55: without
	// deep features the aggregate stays below the similar threshold.
	want := 0.55
	if math.Abs(m.ConfidenceScore-want) > 1e-9 {
		t.Errorf("aggregate = %v, want %v", m.ConfidenceScore, want)
	}
	if m.MatchType != domain.MatchTypeNoMatch {
		t.Errorf("match type = %s, want no_match at %v", m.MatchType, m.ConfidenceScore)
	}
}

func TestCompare_UnrelatedAudioStaysBelowReject(t *testing.T) {
	svc := New(4)
	// A silent clip has an all-zero feature vector; the speech clip does not.
	// Digest slots carry no bit structure, so two different digests must
	// contribute 0, not near-random Hamming similarity.
	silent := audioFingerprint("silent", []byte("ten seconds of silence"), make([]float32, 64))
	speech := audioFingerprint("speech", []byte("three minutes of speech"), []float32{
		2.1, 3.4, 1.8, 0.6, 4.2, 2.9, 1.1, 0.3,
	})
	speech.AudioFeatures = append(speech.AudioFeatures, make([]float32, 56)...)

	m, err := svc.Compare(silent, speech)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.ConfidenceScore >= 0.3 {
		t.Errorf("unrelated audio confidence = %v, want < 0.3", m.ConfidenceScore)
	}
	for method, s := range m.SimilarityScores {
		if method != domain.MethodDeepFeatures && s != 0 {
			t.Errorf("digest slot %s scored %v for unequal digests, want 0", method, s)
		}
	}
}

func TestCompare_IdenticalAudioDigestsScoreFull(t *testing.T) {
	svc := New(4)
	features := []float32{1.5, 2.5, 0.5, 3.5}
	a := audioFingerprint("a", []byte("same clip"), features)
	b := audioFingerprint("b", []byte("same clip"), features)

	m, err := svc.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.MatchType != domain.MatchTypeExact {
		t.Errorf("byte-identical audio match type = %s, want exact", m.MatchType)
	}
}

func TestCompare_TextDigestsByEquality(t *testing.T) {
	svc := New(4)
	// Same text after normalization, different raw bytes: the normalized
	// slots match exactly and the raw slots contribute nothing.
	mk := func(id, raw string) *domain.ContentFingerprint {
		return &domain.ContentFingerprint{
			ContentID:      id,
			ContentType:    domain.ContentTypeText,
			PerceptualHash: hash.Digest([]byte(raw)),
			AverageHash:    hash.NormalizedTextDigest(raw),
			DifferenceHash: hash.Digest([]byte(raw)),
			WaveletHash:    hash.NormalizedTextDigest(raw),
			ColorHash:      hash.Digest([]byte(raw)),
			CreatedAt:      time.Now(),
		}
	}
	a := mk("a", "The Quick Brown Fox")
	b := mk("b", "the quick  brown fox")

	m, err := svc.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if s := m.SimilarityScores[domain.MethodAverageHash]; s != 1 {
		t.Errorf("normalized digest slot = %v, want 1 for equal normalization", s)
	}
	if s := m.SimilarityScores[domain.MethodPerceptualHash]; s != 0 {
		t.Errorf("raw digest slot = %v, want 0 for different bytes", s)
	}
}

func TestCompare_Symmetry(t *testing.T) {
	svc := New(4)
	a := imageFingerprint("a", 0x3c, []float32{0.2, 0.8, 0.4})
	b := imageFingerprint("b", 0x35, []float32{0.25, 0.7, 0.5})

	ab, err := svc.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	ba, err := svc.Compare(b, a)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if ab.ConfidenceScore != ba.ConfidenceScore {
		t.Errorf("asymmetric aggregate: %v vs %v", ab.ConfidenceScore, ba.ConfidenceScore)
	}
	for method, s := range ab.SimilarityScores {
		if ba.SimilarityScores[method] != s {
			t.Errorf("asymmetric %s: %v vs %v", method, s, ba.SimilarityScores[method])
		}
	}
}

func TestCosineSimilarity_Clamped(t *testing.T) {
	// Opposed vectors have cosine -1; the score must clamp to 0.
	sim, ok := cosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if !ok {
		t.Fatal("expected comparable vectors")
	}
	if sim != 0 {
		t.Errorf("negative cosine should clamp to 0, got %v", sim)
	}

	if _, ok := cosineSimilarity([]float32{1}, []float32{1, 2}); ok {
		t.Error("dimension mismatch should not be comparable")
	}
	if _, ok := cosineSimilarity(nil, []float32{1}); ok {
		t.Error("absent vector should not be comparable")
	}
}

func TestCompare_NilFingerprint(t *testing.T) {
	svc := New(4)
	if _, err := svc.Compare(nil, imageFingerprint("b", 1, nil)); !errors.Is(err, domain.ErrMalformedMatch) {
		t.Errorf("expected ErrMalformedMatch, got %v", err)
	}
}

func TestCompareBatch(t *testing.T) {
	svc := New(2)
	ref := imageFingerprint("ref", 0xa5, []float32{1, 2, 3})
	candidates := []*domain.ContentFingerprint{
		imageFingerprint("c1", 0xa5, []float32{1, 2, 3}),
		imageFingerprint("c2", 0x12, nil),
		nil,
	}

	matches, errs := svc.CompareBatch(context.Background(), ref, candidates)
	if matches[0] == nil || matches[0].MatchType != domain.MatchTypeExact {
		t.Errorf("identical candidate should match exact, got %+v", matches[0])
	}
	if matches[1] == nil || errs[1] != nil {
		t.Errorf("dissimilar candidate should still produce a result")
	}
	if errs[2] == nil {
		t.Error("nil candidate should produce a positional error")
	}
}

func TestCompareBatch_Canceled(t *testing.T) {
	svc := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ref := imageFingerprint("ref", 0xa5, nil)
	_, errs := svc.CompareBatch(ctx, ref, []*domain.ContentFingerprint{ref, ref, ref})
	canceled := 0
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			canceled++
		}
	}
	if canceled == 0 {
		t.Error("expected at least one canceled comparison")
	}
}

func TestReasoning_CitesTopMethods(t *testing.T) {
	svc := New(4)
	a := imageFingerprint("a", 0xa5, []float32{1, 0, 0})
	b := imageFingerprint("b", 0xa5, []float32{1, 0.1, 0})

	m, err := svc.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !strings.Contains(m.Reasoning, "=") || !strings.Contains(m.Reasoning, string(m.MatchType)) {
		t.Errorf("reasoning should cite scores and match type: %q", m.Reasoning)
	}
}
