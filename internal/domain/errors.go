package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedContentType signals a content type outside image/video/audio/text.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrExtractionFailure signals content that could not be decoded into a fingerprint.
	ErrExtractionFailure = errors.New("extraction failure")
	// ErrMalformedMatch signals a similarity match that cannot be assembled into features.
	ErrMalformedMatch = errors.New("malformed similarity match")
	// ErrInsufficientTrainingData signals a training set too small for the ensemble.
	ErrInsufficientTrainingData = errors.New("insufficient training data")
	// ErrArtifactNotFound signals a missing persisted model artifact.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrPredictionNotFound signals an unknown prediction ID in an outcome report.
	ErrPredictionNotFound = errors.New("prediction not found")
	// ErrEmbeddingProviderError signals an upstream embedding or transcription API failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals an upstream 429 response.
	ErrRateLimited = errors.New("rate limited")
)

// ExtractionError wraps ErrExtractionFailure with the failing pipeline stage.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExtractionFailure.Error(), e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return ErrExtractionFailure }

// NewExtractionError creates an extraction error for the given pipeline stage.
func NewExtractionError(stage string, err error) error {
	return &ExtractionError{Stage: stage, Err: err}
}
