// Package openai provides embedding and transcription clients for any
// OpenAI-compatible API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/metrics"
)

// Config holds the provider settings shared by the embedder and transcriber.
type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// Embedder produces text and image embeddings via an OpenAI-compatible API.
// Image embedding requires a multimodal model that accepts data-URL input.
type Embedder struct {
	client     *openai.Client
	textModel  openai.EmbeddingModel
	imageModel openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		textModel:  openai.EmbeddingModel(cfg.TextModel),
		imageModel: openai.EmbeddingModel(cfg.ImageModel),
		dimensions: cfg.Dimensions,
		provider:   cfg.Provider,
		logger:     logger,
	}
}

// EmbedText returns a semantic embedding for text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.textModel, text)
}

// EmbedImage encodes the frame as PNG and embeds it as a data URL. The
// configured image model must accept image input.
func (e *Embedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	model := e.imageModel
	if model == "" {
		model = e.textModel
	}
	return e.embed(ctx, model, dataURL)
}

func (e *Embedder) embed(ctx context.Context, model openai.EmbeddingModel, input string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{input},
		Model:          model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "error").Inc()
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(model), "success").Inc()
	return resp.Data[0].Embedding, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response. All
// errors are wrapped with domain.ErrEmbeddingProviderError so callers can map
// them to an upstream-failure status.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail pulls the "detail" field out of a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
