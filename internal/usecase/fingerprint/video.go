package fingerprint

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/media"
)

func (s *Service) buildVideo(ctx context.Context, data []byte, contentID string) (*domain.ContentFingerprint, error) {
	frames, duration, err := s.frames.SampleFrames(data, s.cfg.FrameRate, s.cfg.MaxFrames)
	if err != nil {
		return nil, domain.NewExtractionError("sample_frames", err)
	}
	if len(frames) == 0 {
		return nil, domain.NewExtractionError("sample_frames", errNoFrames)
	}

	// Representative-frame hashing: hashes come from the temporally central
	// frame only, not per frame.
	central := media.CentralFrame(frames)
	set, err := s.hashes.ExtractAll(central.Image)
	if err != nil {
		return nil, domain.NewExtractionError("hash_frame", err)
	}

	// The video embedding is the mean over an even subsample of frames. The
	// averaging trades frame-level localization for robustness to
	// re-encoding and cropping; callers needing "which timestamp matched"
	// must recompute per-frame embeddings themselves.
	deep := s.meanFrameEmbedding(ctx, media.EvenSubsample(frames, s.cfg.EmbedFrames), contentID)

	bounds := central.Image.Bounds()
	s.logger.Debug("video fingerprint built",
		zap.String("content_id", contentID),
		zap.Int("sampled_frames", len(frames)),
		zap.Float64("duration_sec", duration),
	)

	return &domain.ContentFingerprint{
		ContentID:      contentID,
		ContentType:    domain.ContentTypeVideo,
		PerceptualHash: set.Perceptual,
		AverageHash:    set.Average,
		DifferenceHash: set.Difference,
		WaveletHash:    set.Wavelet,
		ColorHash:      set.Color,
		DeepFeatures:   deep,
		FileSize:       int64(len(data)),
		Duration:       duration,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (s *Service) meanFrameEmbedding(ctx context.Context, frames []media.Frame, contentID string) []float32 {
	var sum []float64
	count := 0
	for _, frame := range frames {
		emb, err := s.imageEmbed.EmbedImage(ctx, frame.Image)
		if err != nil {
			s.logger.Warn("frame embedding failed",
				zap.String("content_id", contentID),
				zap.Float64("timestamp", frame.Timestamp),
				zap.Error(err))
			continue
		}
		if sum == nil {
			sum = make([]float64, len(emb))
		}
		if len(emb) != len(sum) {
			continue
		}
		for i, v := range emb {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	out := make([]float32, len(sum))
	for i, v := range sum {
		out[i] = float32(v / float64(count))
	}
	return out
}
