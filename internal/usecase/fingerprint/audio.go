package fingerprint

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/hash"
	"github.com/copyshield/copyshield/internal/media"
)

var (
	errNoFrames    = errors.New("no frames sampled")
	errInvalidUTF8 = errors.New("text is not valid UTF-8")
)

func (s *Service) buildAudio(ctx context.Context, data []byte, contentID string) (*domain.ContentFingerprint, error) {
	samples, duration, err := media.DecodeAudio(data)
	if err != nil {
		return nil, domain.NewExtractionError("decode_audio", err)
	}

	features := media.SpectralFeatures(samples, media.TargetSampleRate)

	// Audio carries no perceptual image hashes; a content digest fills every
	// slot to keep the record shape uniform.
	digest := hash.Digest(data)

	var textEmb []float32
	if s.transcriber != nil {
		transcript, err := s.transcriber.Transcribe(ctx, data)
		switch {
		case err != nil:
			// Transcription is best effort; its absence degrades the
			// fingerprint rather than failing the build.
			s.logger.Warn("transcription failed",
				zap.String("content_id", contentID), zap.Error(err))
		case transcript != "":
			textEmb, err = s.textEmbed.EmbedText(ctx, transcript)
			if err != nil {
				s.logger.Warn("transcript embedding failed",
					zap.String("content_id", contentID), zap.Error(err))
				textEmb = nil
			}
		}
	}

	s.logger.Debug("audio fingerprint built",
		zap.String("content_id", contentID),
		zap.Float64("duration_sec", duration),
		zap.Bool("has_transcript_embedding", textEmb != nil),
	)

	return &domain.ContentFingerprint{
		ContentID:      contentID,
		ContentType:    domain.ContentTypeAudio,
		PerceptualHash: digest,
		AverageHash:    digest,
		DifferenceHash: digest,
		WaveletHash:    digest,
		ColorHash:      digest,
		AudioFeatures:  features,
		TextEmbeddings: textEmb,
		FileSize:       int64(len(data)),
		Duration:       duration,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
