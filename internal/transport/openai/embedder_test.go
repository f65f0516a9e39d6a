package openai

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

func embeddingServer(t *testing.T, vec []float32, onRequest func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if onRequest != nil {
			onRequest(r)
		}

		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = append(resp.Data, struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}{Object: "embedding", Embedding: vec})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedder_EmbedText(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}

	server := embeddingServer(t, expectedVec, func(r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
	})
	defer server.Close()

	emb := NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		TextModel:  "test-model",
		Dimensions: 4,
		Provider:   "test",
		Logger:     zap.NewNop(),
	})

	vec, err := emb.EmbedText(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vec) != len(expectedVec) {
		t.Fatalf("expected %d dimensions, got %d", len(expectedVec), len(vec))
	}
	for i, v := range vec {
		if v != expectedVec[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, expectedVec[i])
		}
	}
}

func TestEmbedder_EmbedImageSendsDataURL(t *testing.T) {
	var gotInput string
	server := embeddingServer(t, []float32{0.5, 0.5}, func(r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) == 1 {
			gotInput = req.Input[0]
		}
		if req.Model != "image-model" {
			t.Errorf("model = %s, want image-model", req.Model)
		}
	})
	defer server.Close()

	emb := NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		TextModel:  "test-model",
		ImageModel: "image-model",
		Provider:   "test",
	})

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	if _, err := emb.EmbedImage(context.Background(), img); err != nil {
		t.Fatalf("EmbedImage failed: %v", err)
	}
	if !strings.HasPrefix(gotInput, "data:image/png;base64,") {
		t.Errorf("input is not a PNG data URL: %.40s", gotInput)
	}
}

func TestEmbedder_APIErrorWrapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"backend unavailable"}`))
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, TextModel: "m", Provider: "test"})

	_, err := emb.EmbedText(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "backend unavailable") {
		t.Errorf("error should surface the provider detail: %v", err)
	}
}

func TestEmbedder_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"slow down"}`))
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, TextModel: "m", Provider: "test"})

	_, err := emb.EmbedText(context.Background(), "x")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[],"model":"test-model"}`))
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, TextModel: "m", Provider: "test"})

	_, err := emb.EmbedText(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestTranscriber_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  hello from the audio track "}`))
	}))
	defer server.Close()

	tr := NewTranscriber(&Config{APIKey: "k", BaseURL: server.URL, Provider: "test"}, "")

	text, err := tr.Transcribe(context.Background(), []byte("RIFFfakewav"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello from the audio track" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscriber_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer server.Close()

	tr := NewTranscriber(&Config{APIKey: "k", BaseURL: server.URL, Provider: "test"}, "whisper-1")

	if _, err := tr.Transcribe(context.Background(), []byte("RIFF")); err == nil {
		t.Fatal("expected error")
	}
}
