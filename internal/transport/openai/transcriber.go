package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/metrics"
)

// DefaultTranscriptionModel is used when no model is configured.
const DefaultTranscriptionModel = openai.Whisper1

// Transcriber converts speech audio to text through an OpenAI-compatible
// speech-to-text endpoint.
type Transcriber struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewTranscriber creates a speech-to-text client. model may be empty.
func NewTranscriber(cfg *Config, model string) *Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if model == "" {
		model = DefaultTranscriptionModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Transcriber{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Transcribe sends WAV audio for transcription. Audio without recognizable
// speech yields an empty string, not an error.
func (t *Transcriber) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wavData),
	})
	if err != nil {
		metrics.TranscriptionRequestsTotal.WithLabelValues(t.provider, "error").Inc()
		return "", fmt.Errorf("transcription: %w", parseAPIError(err))
	}

	metrics.TranscriptionRequestsTotal.WithLabelValues(t.provider, "success").Inc()
	return strings.TrimSpace(resp.Text), nil
}
