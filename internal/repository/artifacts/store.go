// Package artifacts persists trained scoring models as a JSON file on disk.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/ml"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
)

// fileVersion guards against loading artifacts written by an incompatible
// layout of this file.
const fileVersion = 1

// Store writes scoring artifacts to a single JSON file.
type Store struct {
	path string
}

// New creates a store rooted at path. Parent directories are created on the
// first Save.
func New(path string) *Store {
	return &Store{path: path}
}

type artifactFile struct {
	Version  int                    `json:"version"`
	Forest   *ml.RandomForest       `json:"random_forest"`
	Boost    *ml.GradientBoost      `json:"gradient_boost"`
	Logistic *ml.LogisticRegression `json:"logistic_regression"`
	Scaler   *ml.StandardScaler     `json:"scaler"`
	Meta     scoring.ArtifactMeta   `json:"meta"`
}

// Save writes the artifacts atomically (write to temp file, then rename).
func (s *Store) Save(art *scoring.Artifacts) error {
	if art == nil {
		return fmt.Errorf("nil artifacts")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(artifactFile{
		Version:  fileVersion,
		Forest:   art.Forest,
		Boost:    art.Boost,
		Logistic: art.Logistic,
		Scaler:   art.Scaler,
		Meta:     art.Meta,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace artifacts: %w", err)
	}
	return nil
}

// Load reads previously saved artifacts. A missing file maps to
// domain.ErrArtifactNotFound so callers can treat it as a cold start.
func (s *Store) Load() (*scoring.Artifacts, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, s.path)
		}
		return nil, fmt.Errorf("read artifacts: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse artifacts %s: %w", s.path, err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("artifact file %s has version %d, want %d", s.path, file.Version, fileVersion)
	}

	return &scoring.Artifacts{
		Forest:   file.Forest,
		Boost:    file.Boost,
		Logistic: file.Logistic,
		Scaler:   file.Scaler,
		Meta:     file.Meta,
	}, nil
}
