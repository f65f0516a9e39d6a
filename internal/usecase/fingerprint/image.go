package fingerprint

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/media"
)

func (s *Service) buildImage(ctx context.Context, data []byte, contentID string) (*domain.ContentFingerprint, error) {
	img, format, err := media.DecodeImage(data)
	if err != nil {
		return nil, domain.NewExtractionError("decode_image", err)
	}

	set, err := s.hashes.ExtractAll(img)
	if err != nil {
		return nil, domain.NewExtractionError("hash_image", err)
	}

	// Embedding failure degrades the fingerprint, it does not fail the build:
	// hash-only fingerprints are a valid state.
	deep, err := s.imageEmbed.EmbedImage(ctx, img)
	if err != nil {
		s.logger.Warn("image embedding failed, continuing hash-only",
			zap.String("content_id", contentID), zap.Error(err))
		deep = nil
	}

	bounds := img.Bounds()
	s.logger.Debug("image fingerprint built",
		zap.String("content_id", contentID),
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
	)

	return &domain.ContentFingerprint{
		ContentID:      contentID,
		ContentType:    domain.ContentTypeImage,
		PerceptualHash: set.Perceptual,
		AverageHash:    set.Average,
		DifferenceHash: set.Difference,
		WaveletHash:    set.Wavelet,
		ColorHash:      set.Color,
		DeepFeatures:   deep,
		FileSize:       int64(len(data)),
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		CreatedAt:      time.Now().UTC(),
	}, nil
}
