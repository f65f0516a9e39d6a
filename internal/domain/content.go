package domain

import (
	"fmt"
	"time"
)

// ContentType identifies the media family of a piece of content.
type ContentType string

// Supported content types.
const (
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
	ContentTypeAudio ContentType = "audio"
	ContentTypeText  ContentType = "text"
)

// ParseContentType validates a raw content-type string.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypeImage, ContentTypeVideo, ContentTypeAudio, ContentTypeText:
		return ContentType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, s)
	}
}

// Rank places the content type on a [0,1] scale for use as a model feature.
// Richer modalities rank higher because they carry more comparison signal.
func (t ContentType) Rank() float64 {
	switch t {
	case ContentTypeVideo:
		return 1.0
	case ContentTypeImage:
		return 0.75
	case ContentTypeAudio:
		return 0.5
	case ContentTypeText:
		return 0.25
	default:
		return 0
	}
}

// Similarity method names. These key the per-method score maps and the
// comparator weight table.
const (
	MethodDeepFeatures   = "deep_features"
	MethodPerceptualHash = "perceptual_hash"
	MethodAverageHash    = "average_hash"
	MethodDifferenceHash = "difference_hash"
	MethodWaveletHash    = "wavelet_hash"
	MethodColorHash      = "color_hash"
	MethodTextSimilarity = "text_similarity"
)

// MethodNames lists every similarity method in weight-table order.
var MethodNames = []string{
	MethodDeepFeatures,
	MethodPerceptualHash,
	MethodAverageHash,
	MethodDifferenceHash,
	MethodWaveletHash,
	MethodColorHash,
	MethodTextSimilarity,
}

// ContentFingerprint is the compact multi-signal signature of one piece of
// content. Hash fields are hex strings of uniform length; feature slices may
// be nil when the corresponding extractor was unavailable.
type ContentFingerprint struct {
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`

	PerceptualHash string `json:"perceptual_hash,omitempty"`
	AverageHash    string `json:"average_hash,omitempty"`
	DifferenceHash string `json:"difference_hash,omitempty"`
	WaveletHash    string `json:"wavelet_hash,omitempty"`
	ColorHash      string `json:"color_hash,omitempty"`

	DeepFeatures   []float32 `json:"deep_features,omitempty"`
	TextEmbeddings []float32 `json:"text_embeddings,omitempty"`
	AudioFeatures  []float32 `json:"audio_features,omitempty"`

	FileSize int64   `json:"file_size,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HashFields maps method names to the fingerprint's non-empty hash strings.
func (f *ContentFingerprint) HashFields() map[string]string {
	out := make(map[string]string, 5)
	for name, h := range map[string]string{
		MethodPerceptualHash: f.PerceptualHash,
		MethodAverageHash:    f.AverageHash,
		MethodDifferenceHash: f.DifferenceHash,
		MethodWaveletHash:    f.WaveletHash,
		MethodColorHash:      f.ColorHash,
	} {
		if h != "" {
			out[name] = h
		}
	}
	return out
}
