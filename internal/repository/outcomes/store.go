// Package outcomes persists reviewed decision outcomes in SQLite. Reviewed
// outcomes are the ground truth the scoring engine trains and optimizes
// thresholds on.
package outcomes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
)

// Outcome is one reviewed prediction: the features that were scored and the
// reviewer's verdict.
type Outcome struct {
	ID           int64                     `json:"id"`
	PredictionID string                    `json:"prediction_id"`
	Features     domain.ConfidenceFeatures `json:"features"`
	Predicted    domain.DecisionClass      `json:"predicted"`
	Confidence   float64                   `json:"confidence"`
	Infringing   bool                      `json:"infringing"`
	ReviewedBy   string                    `json:"reviewed_by,omitempty"`
	ReviewedAt   time.Time                 `json:"reviewed_at"`
}

// Store is a SQLite-backed outcome repository.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the outcome database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open outcome db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		prediction_id TEXT NOT NULL,
		features      TEXT NOT NULL,
		predicted     TEXT NOT NULL,
		confidence    REAL NOT NULL,
		infringing    INTEGER NOT NULL,
		reviewed_by   TEXT DEFAULT '',
		reviewed_at   DATETIME NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_prediction ON outcomes(prediction_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_reviewed_at ON outcomes(reviewed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply outcome schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one reviewed outcome.
func (s *Store) Record(ctx context.Context, o Outcome) (int64, error) {
	if o.PredictionID == "" {
		return 0, fmt.Errorf("outcome must carry a prediction ID")
	}
	if o.ReviewedAt.IsZero() {
		o.ReviewedAt = time.Now().UTC()
	}

	features, err := json.Marshal(o.Features)
	if err != nil {
		return 0, fmt.Errorf("marshal features: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (prediction_id, features, predicted, confidence, infringing, reviewed_by, reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.PredictionID, string(features), string(o.Predicted), o.Confidence,
		boolToInt(o.Infringing), o.ReviewedBy, o.ReviewedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert outcome: %w", err)
	}
	return res.LastInsertId()
}

// RecordOutcome is the flat form of Record used by the evaluation pipeline.
func (s *Store) RecordOutcome(
	ctx context.Context, predictionID string, f domain.ConfidenceFeatures,
	predicted domain.DecisionClass, confidence float64, infringing bool, reviewedBy string,
) (int64, error) {
	return s.Record(ctx, Outcome{
		PredictionID: predictionID,
		Features:     f,
		Predicted:    predicted,
		Confidence:   confidence,
		Infringing:   infringing,
		ReviewedBy:   reviewedBy,
	})
}

// ByPrediction returns the latest outcome recorded for a prediction ID.
func (s *Store) ByPrediction(ctx context.Context, predictionID string) (Outcome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, prediction_id, features, predicted, confidence, infringing, reviewed_by, reviewed_at
		 FROM outcomes WHERE prediction_id = ?
		 ORDER BY reviewed_at DESC, id DESC LIMIT 1`,
		predictionID,
	)
	o, err := scanOutcome(row)
	if err == sql.ErrNoRows {
		return Outcome{}, fmt.Errorf("%w: prediction %s", domain.ErrPredictionNotFound, predictionID)
	}
	return o, err
}

// TrainingSet returns up to limit labeled samples, newest first. A limit of
// zero or less means no limit.
func (s *Store) TrainingSet(ctx context.Context, limit int) ([]scoring.LabeledSample, error) {
	query := `SELECT features, infringing FROM outcomes ORDER BY reviewed_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query training set: %w", err)
	}
	defer rows.Close()

	var samples []scoring.LabeledSample
	for rows.Next() {
		var raw string
		var infringing int
		if err := rows.Scan(&raw, &infringing); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		var f domain.ConfidenceFeatures
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("parse stored features: %w", err)
		}
		samples = append(samples, scoring.LabeledSample{Features: f, Infringing: infringing != 0})
	}
	return samples, rows.Err()
}

// Stats summarizes recorded outcomes for operational visibility.
type Stats struct {
	Total         int     `json:"total"`
	Infringing    int     `json:"infringing"`
	AvgConfidence float64 `json:"avg_confidence"`
	Disagreements int     `json:"disagreements"`
}

// Summary computes aggregate outcome statistics since the given time.
func (s *Store) Summary(ctx context.Context, since time.Time) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(infringing), 0),
		        COALESCE(AVG(confidence), 0),
		        COALESCE(SUM(CASE
		            WHEN infringing = 1 AND predicted = 'auto_approve' THEN 1
		            WHEN infringing = 0 AND predicted = 'auto_reject' THEN 1
		            ELSE 0 END), 0)
		 FROM outcomes WHERE reviewed_at >= ?`,
		since,
	).Scan(&st.Total, &st.Infringing, &st.AvgConfidence, &st.Disagreements)
	if err != nil {
		return st, fmt.Errorf("outcome summary: %w", err)
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row rowScanner) (Outcome, error) {
	var (
		o          Outcome
		raw        string
		infringing int
	)
	err := row.Scan(&o.ID, &o.PredictionID, &raw, &o.Predicted, &o.Confidence,
		&infringing, &o.ReviewedBy, &o.ReviewedAt)
	if err != nil {
		return Outcome{}, err
	}
	if err := json.Unmarshal([]byte(raw), &o.Features); err != nil {
		return Outcome{}, fmt.Errorf("parse stored features: %w", err)
	}
	o.Infringing = infringing != 0
	return o, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
