// Package copyshield detects unauthorized reuse of protected content. It
// fingerprints media, compares fingerprint pairs across several perceptual
// methods, and scores each match with a calibrated confidence and an
// auto-approve / manual-review / auto-reject decision.
package copyshield

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/cache"
	cacheRedis "github.com/copyshield/copyshield/internal/cache/redis"
	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/embed/local"
	"github.com/copyshield/copyshield/internal/hash"
	"github.com/copyshield/copyshield/internal/media"
	"github.com/copyshield/copyshield/internal/metrics"
	artifactrepo "github.com/copyshield/copyshield/internal/repository/artifacts"
	fprepo "github.com/copyshield/copyshield/internal/repository/fingerprints"
	outcomerepo "github.com/copyshield/copyshield/internal/repository/outcomes"
	openaiTransport "github.com/copyshield/copyshield/internal/transport/openai"
	"github.com/copyshield/copyshield/internal/usecase/compare"
	"github.com/copyshield/copyshield/internal/usecase/evaluate"
	"github.com/copyshield/copyshield/internal/usecase/features"
	"github.com/copyshield/copyshield/internal/usecase/fingerprint"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
)

const (
	defaultReadinessTimeout   = 10 * time.Second
	defaultTranscriptionModel = openaiTransport.DefaultTranscriptionModel
)

// Public aliases so callers never import internal packages.
type (
	ContentType        = domain.ContentType
	ContentFingerprint = domain.ContentFingerprint
	SimilarityMatch    = domain.SimilarityMatch
	ConfidenceScore    = domain.ConfidenceScore
	ConfidenceFeatures = domain.ConfidenceFeatures
	DecisionClass      = domain.DecisionClass
	Evaluation         = evaluate.Evaluation
	Context            = features.Context
	Thresholds         = scoring.Thresholds
	TrainReport        = scoring.TrainReport
)

const (
	ContentTypeImage = domain.ContentTypeImage
	ContentTypeVideo = domain.ContentTypeVideo
	ContentTypeAudio = domain.ContentTypeAudio
	ContentTypeText  = domain.ContentTypeText

	DecisionAutoApprove  = domain.DecisionAutoApprove
	DecisionManualReview = domain.DecisionManualReview
	DecisionAutoReject   = domain.DecisionAutoReject
)

// Client is the copyshield SDK entry point.
type Client struct {
	svc      *evaluate.Service
	store    cache.Store // nil without WithRedisCache
	outcomes *outcomerepo.Store
}

// New creates a copyshield Client. With no options the client runs fully
// self-contained: local embeddings, no cache, no persistence.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.transcriptionModel != "" && cfg.openAIKey == "" {
		return nil, fmt.Errorf("copyshield: transcription requires WithOpenAI")
	}

	textEmbed, imageEmbed, transcriber := buildEmbedders(cfg)

	fpSvc := fingerprint.New(
		hash.NewExtractor(), textEmbed, imageEmbed,
		media.NewGIFFrameSource(), transcriber, cfg.fingerprint, cfg.logger,
	)
	cmpSvc := compare.New(cfg.workers)
	engine := scoring.New(scoring.Config{Thresholds: cfg.thresholds}, cfg.logger)

	var artifacts scoring.ArtifactStore
	if cfg.artifactPath != "" {
		artifacts = artifactrepo.New(cfg.artifactPath)
		if err := engine.RestoreFrom(artifacts); err != nil {
			cfg.logger.Warn("failed to restore model artifacts", zap.Error(err))
		}
	}

	var outcomeStore *outcomerepo.Store
	if cfg.outcomesPath != "" {
		var err error
		outcomeStore, err = outcomerepo.Open(cfg.outcomesPath)
		if err != nil {
			return nil, fmt.Errorf("copyshield: open outcome store: %w", err)
		}
	}

	var (
		store  cache.Store
		fpRepo evaluate.FingerprintCache
	)
	if cfg.redisAddr != "" {
		s, err := cacheRedis.NewStore(cacheRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			closeQuietly(outcomeStore)
			return nil, fmt.Errorf("copyshield: create cache store: %w", err)
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			closeQuietly(outcomeStore)
			return nil, fmt.Errorf("copyshield: cache not ready: %w", err)
		}
		store = s
		fpRepo = fprepo.New(s, cfg.cacheTTL, metrics.FingerprintCacheTotal, cfg.logger)
	}

	var recorder evaluate.OutcomeRecorder
	if outcomeStore != nil {
		recorder = outcomeStore
	}

	svc := evaluate.New(fpSvc, cmpSvc, features.New(), engine, fpRepo, recorder, artifacts, cfg.logger)

	return &Client{svc: svc, store: store, outcomes: outcomeStore}, nil
}

func buildEmbedders(cfg *clientConfig) (
	fingerprint.TextEmbedder, fingerprint.ImageEmbedder, fingerprint.Transcriber,
) {
	if cfg.openAIKey == "" {
		emb := local.New()
		return emb, emb, nil
	}

	ocfg := &openaiTransport.Config{
		APIKey:     cfg.openAIKey,
		BaseURL:    cfg.openAIBaseURL,
		TextModel:  cfg.textModel,
		ImageModel: cfg.imageModel,
		Provider:   "openai",
		Logger:     cfg.logger,
	}
	emb := openaiTransport.NewEmbedder(ocfg)

	var transcriber fingerprint.Transcriber
	if cfg.transcriptionModel != "" {
		transcriber = openaiTransport.NewTranscriber(ocfg, cfg.transcriptionModel)
	}
	return emb, emb, transcriber
}

func closeQuietly(s *outcomerepo.Store) {
	if s != nil {
		_ = s.Close()
	}
}

// Close releases the cache connection and the outcome store.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.outcomes != nil {
		_ = c.outcomes.Close()
	}
}

// Ping checks cache connectivity. Always succeeds when no cache is
// configured.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Fingerprint builds a fingerprint from raw content bytes. contentID may be
// empty; it is then derived from the content digest.
func (c *Client) Fingerprint(ctx context.Context, data []byte, contentType ContentType, contentID string) (*ContentFingerprint, error) {
	return c.svc.Fingerprint(ctx, fingerprint.Source{Bytes: data}, contentType, contentID)
}

// FingerprintFile builds a fingerprint from a file on disk.
func (c *Client) FingerprintFile(ctx context.Context, path string, contentType ContentType, contentID string) (*ContentFingerprint, error) {
	return c.svc.Fingerprint(ctx, fingerprint.Source{Path: path}, contentType, contentID)
}

// Compare scores the similarity of one fingerprint pair without a decision.
func (c *Client) Compare(original, candidate *ContentFingerprint) (*SimilarityMatch, error) {
	return c.svc.Compare(original, candidate)
}

// CompareBatch scores one original against many candidates with bounded
// concurrency. Results are positional and paired with per-candidate errors.
func (c *Client) CompareBatch(ctx context.Context, original *ContentFingerprint, candidates []*ContentFingerprint) ([]*SimilarityMatch, []error) {
	return c.svc.CompareBatch(ctx, original, candidates)
}

// Evaluate runs the full pipeline on a fingerprint pair: similarity,
// contextual features, confidence, decision.
func (c *Client) Evaluate(original, candidate *ContentFingerprint, fctx Context) (*Evaluation, error) {
	return c.svc.Evaluate(original, candidate, fctx)
}

// EvaluateContent fingerprints both raw contents, then evaluates them.
func (c *Client) EvaluateContent(
	ctx context.Context, original, candidate []byte,
	contentType ContentType, originalID, candidateID string, fctx Context,
) (*Evaluation, error) {
	return c.svc.EvaluateContent(ctx,
		fingerprint.Source{Bytes: original}, fingerprint.Source{Bytes: candidate},
		contentType, originalID, candidateID, fctx)
}

// ReportOutcome records a human-reviewed verdict for a prediction. Requires
// WithOutcomeStore.
func (c *Client) ReportOutcome(
	ctx context.Context, predictionID string, f ConfidenceFeatures,
	predicted DecisionClass, confidence float64, infringing bool, reviewedBy string,
) (int64, error) {
	return c.svc.ReportOutcome(ctx, predictionID, f, predicted, confidence, infringing, reviewedBy)
}

// Train fits the scoring ensemble on recorded outcomes. limit 0 means all.
func (c *Client) Train(ctx context.Context, limit int) (TrainReport, error) {
	return c.svc.Train(ctx, limit)
}

// OptimizeThresholds tunes decision thresholds against recorded outcomes.
func (c *Client) OptimizeThresholds(ctx context.Context, limit int) (Thresholds, error) {
	return c.svc.OptimizeThresholds(ctx, limit)
}

// Thresholds returns the active decision thresholds.
func (c *Client) Thresholds() Thresholds { return c.svc.Thresholds() }

// SetThresholds replaces the decision thresholds.
func (c *Client) SetThresholds(t Thresholds) error { return c.svc.SetThresholds(t) }

// Trained reports whether the scoring engine runs the trained ensemble
// rather than the rule-based fallback.
func (c *Client) Trained() bool { return c.svc.Trained() }
