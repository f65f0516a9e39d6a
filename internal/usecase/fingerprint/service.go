// Package fingerprint builds ContentFingerprint records from raw content.
// Each call is stateless aside from shared read-only extractor handles, so
// the service is safe for concurrent use.
package fingerprint

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/metrics"
)

// Defaults for the extraction pipeline.
const (
	DefaultFrameRate   = 1.0  // sampled frames per second of video
	DefaultMaxFrames   = 100  // hard cap on sampled frames
	DefaultEmbedFrames = 10   // frames averaged into the video embedding
	DefaultTextLimit   = 8000 // runes embedded from a text document
)

// Source is already-materialized content: raw bytes or a local path. The
// service never performs network I/O; callers resolve URLs upstream.
type Source struct {
	Bytes []byte
	Path  string
}

func (s Source) resolve() ([]byte, error) {
	if len(s.Bytes) > 0 {
		return s.Bytes, nil
	}
	if s.Path == "" {
		return nil, fmt.Errorf("no content bytes or path")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file %s", s.Path)
	}
	return data, nil
}

// Config tunes the extraction pipeline. Zero values take the defaults.
type Config struct {
	FrameRate   float64
	MaxFrames   int
	EmbedFrames int
	TextLimit   int
}

func (c Config) withDefaults() Config {
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = DefaultMaxFrames
	}
	if c.EmbedFrames <= 0 {
		c.EmbedFrames = DefaultEmbedFrames
	}
	if c.TextLimit <= 0 {
		c.TextLimit = DefaultTextLimit
	}
	return c
}

// Service orchestrates hash and embedding extraction per content type.
type Service struct {
	hashes      HashExtractor
	textEmbed   TextEmbedder
	imageEmbed  ImageEmbedder
	frames      FrameSource
	transcriber Transcriber // optional
	cfg         Config
	logger      *zap.Logger
}

// New creates a fingerprint service. transcriber may be nil; audio content
// then carries no text embedding.
func New(
	hashes HashExtractor, textEmbed TextEmbedder, imageEmbed ImageEmbedder,
	frames FrameSource, transcriber Transcriber, cfg Config, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		hashes:      hashes,
		textEmbed:   textEmbed,
		imageEmbed:  imageEmbed,
		frames:      frames,
		transcriber: transcriber,
		cfg:         cfg.withDefaults(),
		logger:      logger,
	}
}

// Build generates a fingerprint for one piece of content. contentID may be
// empty; it is then derived from the content digest. Fails with
// domain.ErrUnsupportedContentType for unknown types and
// domain.ErrExtractionFailure for undecodable content.
func (s *Service) Build(
	ctx context.Context, src Source, contentType domain.ContentType, contentID string,
) (*domain.ContentFingerprint, error) {
	fp, err := s.build(ctx, src, contentType, contentID)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FingerprintsTotal.WithLabelValues(string(contentType), status).Inc()
	return fp, err
}

func (s *Service) build(
	ctx context.Context, src Source, contentType domain.ContentType, contentID string,
) (*domain.ContentFingerprint, error) {
	if _, err := domain.ParseContentType(string(contentType)); err != nil {
		return nil, err
	}
	data, err := src.resolve()
	if err != nil {
		return nil, domain.NewExtractionError("acquire", err)
	}
	if contentID == "" {
		contentID = deriveContentID(data)
	}

	switch contentType {
	case domain.ContentTypeImage:
		return s.buildImage(ctx, data, contentID)
	case domain.ContentTypeVideo:
		return s.buildVideo(ctx, data, contentID)
	case domain.ContentTypeAudio:
		return s.buildAudio(ctx, data, contentID)
	default:
		return s.buildText(ctx, data, contentID)
	}
}

// BuildBatch fingerprints several sources with bounded concurrency. Results
// and errors are positional; one failing source does not abort the rest.
func (s *Service) BuildBatch(
	ctx context.Context, srcs []Source, contentType domain.ContentType, workers int,
) ([]*domain.ContentFingerprint, []error) {
	if workers <= 0 {
		workers = 4
	}
	fps := make([]*domain.ContentFingerprint, len(srcs))
	errs := make([]error, len(srcs))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fps[i], errs[i] = s.Build(ctx, src, contentType, "")
		}(i, src)
	}
	wg.Wait()
	return fps, errs
}

// deriveContentID produces a stable, content-derived identifier.
func deriveContentID(data []byte) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, data).String()
}
