package copyshield

import (
	"time"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/usecase/fingerprint"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	redisAddr     string
	redisPassword string
	cacheTTL      time.Duration

	openAIKey          string
	openAIBaseURL      string
	textModel          string
	imageModel         string
	transcriptionModel string

	outcomesPath string
	artifactPath string

	thresholds  scoring.Thresholds
	fingerprint fingerprint.Config
	workers     int

	logger *zap.Logger
}

// WithRedisCache enables fingerprint caching in Redis. Without it every
// Fingerprint call recomputes from the raw content.
func WithRedisCache(addr, password string) Option {
	return func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	}
}

// WithCacheTTL sets the fingerprint cache entry lifetime. Default: 7 days.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
	}
}

// WithOpenAI switches embeddings from the built-in local embedder to an
// OpenAI-compatible API. baseURL may be empty for the default endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
	}
}

// WithModels overrides the embedding model names used with WithOpenAI.
// An empty imageModel falls back to the text model.
func WithModels(textModel, imageModel string) Option {
	return func(c *clientConfig) {
		c.textModel = textModel
		c.imageModel = imageModel
	}
}

// WithTranscription enables speech-to-text for audio fingerprints. Requires
// WithOpenAI. model may be empty for the default Whisper model.
func WithTranscription(model string) Option {
	return func(c *clientConfig) {
		if model == "" {
			model = defaultTranscriptionModel
		}
		c.transcriptionModel = model
	}
}

// WithOutcomeStore enables ground-truth recording and training against a
// SQLite database at path. Use ":memory:" for an ephemeral store.
func WithOutcomeStore(path string) Option {
	return func(c *clientConfig) {
		c.outcomesPath = path
	}
}

// WithArtifactStore persists trained model state at path and restores it on
// startup, so a trained ensemble survives restarts.
func WithArtifactStore(path string) Option {
	return func(c *clientConfig) {
		c.artifactPath = path
	}
}

// WithThresholds sets the starting decision thresholds.
// Defaults: auto-approve 0.90, auto-reject 0.30.
func WithThresholds(autoApprove, autoReject float64) Option {
	return func(c *clientConfig) {
		c.thresholds = scoring.Thresholds{AutoApprove: autoApprove, AutoReject: autoReject}
	}
}

// WithFrameSampling tunes video frame extraction: sampling rate in frames
// per second, the hash frame cap, and how many frames feed the deep
// embedding.
func WithFrameSampling(rate float64, maxFrames, embedFrames int) Option {
	return func(c *clientConfig) {
		c.fingerprint.FrameRate = rate
		c.fingerprint.MaxFrames = maxFrames
		c.fingerprint.EmbedFrames = embedFrames
	}
}

// WithWorkers sets the batch comparison concurrency. Default: 8.
func WithWorkers(n int) Option {
	return func(c *clientConfig) {
		c.workers = n
	}
}

// WithLogger enables structured logging. Default: no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
