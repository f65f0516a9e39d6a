// Package chi exposes the detection pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/metrics"
)

// ErrorCode is the machine-readable error discriminator in error responses.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnsupportedContentType ErrorCode = "unsupported_content_type"
	CodeExtractionFailure      ErrorCode = "extraction_failure"
	CodeMalformedMatch         ErrorCode = "malformed_match"
	CodePredictionNotFound     ErrorCode = "prediction_not_found"
	CodeInsufficientTraining   ErrorCode = "insufficient_training_data"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger reports backing-store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes HTTP requests into the evaluation pipeline.
type Server struct {
	pipeline      Pipeline
	cachePing     Pinger // optional
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server. cachePing may be nil when no cache
// is configured.
func NewServer(pipeline Pipeline, cachePing Pinger, logger *zap.Logger) *Server {
	s := &Server{
		pipeline:  pipeline,
		cachePing: cachePing,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedContentType, http.StatusBadRequest, CodeUnsupportedContentType),
		sentinelHandler(domain.ErrExtractionFailure, http.StatusUnprocessableEntity, CodeExtractionFailure),
		sentinelHandler(domain.ErrMalformedMatch, http.StatusBadRequest, CodeMalformedMatch),
		sentinelHandler(domain.ErrPredictionNotFound, http.StatusNotFound, CodePredictionNotFound),
		sentinelHandler(domain.ErrInsufficientTrainingData, http.StatusConflict, CodeInsufficientTraining),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// Router assembles the full middleware chain and route table.
func (s *Server) Router(apiKeys []string) *chirouter.Mux {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chirouter.Router) {
		r.Post("/fingerprints", s.CreateFingerprint)
		r.Post("/compare", s.Compare)
		r.Post("/evaluate", s.Evaluate)
		r.Post("/evaluate/batch", s.EvaluateBatch)
		r.Post("/outcomes", s.ReportOutcome)
		r.Get("/thresholds", s.GetThresholds)
		r.Put("/thresholds", s.PutThresholds)
		r.Post("/thresholds/optimize", s.OptimizeThresholds)
		r.Post("/train", s.Train)
	})

	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"pipeline": "ok"}
	status := http.StatusOK

	if s.cachePing != nil {
		if err := s.cachePing.Ping(r.Context()); err != nil {
			checks["cache"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			checks["cache"] = "ok"
		}
	}

	body := map[string]any{
		"status": "healthy",
		"checks": checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedContentType,
		domain.ErrExtractionFailure,
		domain.ErrMalformedMatch,
		domain.ErrPredictionNotFound,
		domain.ErrInsufficientTrainingData,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
