package fingerprint

import (
	"context"
	"image"

	"github.com/copyshield/copyshield/internal/hash"
	"github.com/copyshield/copyshield/internal/media"
)

// HashExtractor computes the perceptual hash family from one decoded frame.
type HashExtractor interface {
	ExtractAll(img image.Image) (hash.Set, error)
}

// TextEmbedder computes a semantic embedding for text.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder computes a dense visual embedding for one decoded frame.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, img image.Image) ([]float32, error)
}

// Transcriber converts speech audio to text. Implementations return an empty
// string, not an error, for audio without recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// FrameSource re-exports the media sampling contract consumed by the video
// flow.
type FrameSource = media.FrameSource
