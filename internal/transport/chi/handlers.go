package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/usecase/evaluate"
	"github.com/copyshield/copyshield/internal/usecase/features"
	"github.com/copyshield/copyshield/internal/usecase/fingerprint"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
)

const maxBatchSize = 100

// Pipeline is the consumer interface over the evaluation service (ISP).
type Pipeline interface {
	Fingerprint(ctx context.Context, src fingerprint.Source, contentType domain.ContentType, contentID string) (*domain.ContentFingerprint, error)
	Evaluate(original, candidate *domain.ContentFingerprint, fctx features.Context) (*evaluate.Evaluation, error)
	Compare(original, candidate *domain.ContentFingerprint) (*domain.SimilarityMatch, error)
	ReportOutcome(ctx context.Context, predictionID string, f domain.ConfidenceFeatures,
		predicted domain.DecisionClass, confidence float64, infringing bool, reviewedBy string) (int64, error)
	Train(ctx context.Context, limit int) (scoring.TrainReport, error)
	OptimizeThresholds(ctx context.Context, limit int) (scoring.Thresholds, error)
	Thresholds() scoring.Thresholds
	SetThresholds(t scoring.Thresholds) error
	Trained() bool
}

// FingerprintRequest is the body of POST /v1/fingerprints. Data carries the
// raw content; encoding/json decodes it from base64.
type FingerprintRequest struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id,omitempty"`
	Data        []byte `json:"data"`
}

// CreateFingerprint handles POST /v1/fingerprints.
func (s *Server) CreateFingerprint(w http.ResponseWriter, r *http.Request) {
	var req FingerprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "data is required")
		return
	}
	contentType, err := domain.ParseContentType(req.ContentType)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	fp, err := s.pipeline.Fingerprint(r.Context(), fingerprint.Source{Bytes: req.Data}, contentType, req.ContentID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fp)
}

// CompareRequest is the body of POST /v1/compare.
type CompareRequest struct {
	Original  *domain.ContentFingerprint `json:"original"`
	Candidate *domain.ContentFingerprint `json:"candidate"`
}

// Compare handles POST /v1/compare.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	match, err := s.pipeline.Compare(req.Original, req.Candidate)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, match)
}

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Original  *domain.ContentFingerprint `json:"original"`
	Candidate *domain.ContentFingerprint `json:"candidate"`
	Context   features.Context           `json:"context"`
}

// Evaluate handles POST /v1/evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Original == nil || req.Candidate == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "original and candidate fingerprints are required")
		return
	}

	ev, err := s.pipeline.Evaluate(req.Original, req.Candidate, req.Context)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ev)
}

// EvaluateBatchRequest is the body of POST /v1/evaluate/batch.
type EvaluateBatchRequest struct {
	Original   *domain.ContentFingerprint   `json:"original"`
	Candidates []*domain.ContentFingerprint `json:"candidates"`
	Context    features.Context             `json:"context"`
}

// EvaluateBatchItem is one positional result of a batch evaluation.
type EvaluateBatchItem struct {
	Evaluation *evaluate.Evaluation `json:"evaluation,omitempty"`
	Error      *ErrorResponse       `json:"error,omitempty"`
}

// EvaluateBatch handles POST /v1/evaluate/batch.
func (s *Server) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req EvaluateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Original == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "original fingerprint is required")
		return
	}
	if len(req.Candidates) == 0 || len(req.Candidates) > maxBatchSize {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			"candidates count must be between 1 and 100")
		return
	}

	items := make([]EvaluateBatchItem, len(req.Candidates))
	succeeded, failed := 0, 0
	for i, cand := range req.Candidates {
		ev, err := s.pipeline.Evaluate(req.Original, cand, req.Context)
		if err != nil {
			failed++
			items[i] = EvaluateBatchItem{Error: &ErrorResponse{
				Code:    batchErrorCode(err),
				Message: safeDomainMessage(err),
			}}
			continue
		}
		succeeded++
		items[i] = EvaluateBatchItem{Evaluation: ev}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":     items,
		"succeeded": succeeded,
		"failed":    failed,
	})
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrMalformedMatch):
		return CodeMalformedMatch
	case errors.Is(err, domain.ErrUnsupportedContentType):
		return CodeUnsupportedContentType
	default:
		return CodeInternalError
	}
}

// OutcomeRequest is the body of POST /v1/outcomes. Features must be the
// vector returned by the evaluation that produced the prediction.
type OutcomeRequest struct {
	PredictionID string                    `json:"prediction_id"`
	Features     domain.ConfidenceFeatures `json:"features"`
	Predicted    domain.DecisionClass      `json:"predicted"`
	Confidence   float64                   `json:"confidence"`
	Infringing   bool                      `json:"infringing"`
	ReviewedBy   string                    `json:"reviewed_by,omitempty"`
}

// ReportOutcome handles POST /v1/outcomes.
func (s *Server) ReportOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.PredictionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "prediction_id is required")
		return
	}

	id, err := s.pipeline.ReportOutcome(r.Context(), req.PredictionID,
		req.Features, req.Predicted, req.Confidence, req.Infringing, req.ReviewedBy)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// ThresholdsResponse reports the active decision thresholds.
type ThresholdsResponse struct {
	AutoApprove float64 `json:"auto_approve_threshold"`
	AutoReject  float64 `json:"auto_reject_threshold"`
	Trained     bool    `json:"trained"`
}

// GetThresholds handles GET /v1/thresholds.
func (s *Server) GetThresholds(w http.ResponseWriter, r *http.Request) {
	t := s.pipeline.Thresholds()
	writeJSON(w, http.StatusOK, ThresholdsResponse{
		AutoApprove: t.AutoApprove,
		AutoReject:  t.AutoReject,
		Trained:     s.pipeline.Trained(),
	})
}

// PutThresholds handles PUT /v1/thresholds.
func (s *Server) PutThresholds(w http.ResponseWriter, r *http.Request) {
	var req ThresholdsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	t := scoring.Thresholds{AutoApprove: req.AutoApprove, AutoReject: req.AutoReject}
	if err := s.pipeline.SetThresholds(t); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	s.GetThresholds(w, r)
}

// OptimizeThresholds handles POST /v1/thresholds/optimize.
func (s *Server) OptimizeThresholds(w http.ResponseWriter, r *http.Request) {
	t, err := s.pipeline.OptimizeThresholds(r.Context(), 0)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ThresholdsResponse{
		AutoApprove: t.AutoApprove,
		AutoReject:  t.AutoReject,
		Trained:     s.pipeline.Trained(),
	})
}

// Train handles POST /v1/train.
func (s *Server) Train(w http.ResponseWriter, r *http.Request) {
	report, err := s.pipeline.Train(r.Context(), 0)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
