package fingerprint

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/hash"
)

func (s *Service) buildText(ctx context.Context, data []byte, contentID string) (*domain.ContentFingerprint, error) {
	if !utf8.Valid(data) {
		return nil, domain.NewExtractionError("decode_text", errInvalidUTF8)
	}
	text := string(data)
	truncated := truncateRunes(text, s.cfg.TextLimit)

	embedding, err := s.textEmbed.EmbedText(ctx, truncated)
	if err != nil {
		return nil, domain.NewExtractionError("embed_text", err)
	}

	// Two digests fill the five slots: the raw byte digest and the
	// normalized digest differ deliberately, so exact-byte matches and
	// near-identical-after-normalization matches are both detectable.
	raw := hash.Digest(data)
	normalized := hash.NormalizedTextDigest(text)

	s.logger.Debug("text fingerprint built",
		zap.String("content_id", contentID),
		zap.Int("runes", utf8.RuneCountInString(text)),
		zap.Bool("truncated", len(truncated) < len(text)),
	)

	return &domain.ContentFingerprint{
		ContentID:      contentID,
		ContentType:    domain.ContentTypeText,
		PerceptualHash: raw,
		AverageHash:    normalized,
		DifferenceHash: raw,
		WaveletHash:    normalized,
		ColorHash:      raw,
		TextEmbeddings: embedding,
		FileSize:       int64(len(data)),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
