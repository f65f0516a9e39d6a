package scoring

import (
	"time"

	"github.com/copyshield/copyshield/internal/domain"
	"github.com/copyshield/copyshield/internal/ml"
)

// LabeledSample pairs a feature vector with its ground-truth outcome.
type LabeledSample struct {
	Features   domain.ConfidenceFeatures `json:"features"`
	Infringing bool                      `json:"infringing"`
}

// ArtifactMeta is the small metadata record persisted alongside the models.
type ArtifactMeta struct {
	ModelVersion     string    `json:"model_version"`
	FeatureNames     []string  `json:"feature_names"`
	AutoApprove      float64   `json:"auto_approve_threshold"`
	AutoReject       float64   `json:"auto_reject_threshold"`
	CalibrationScore float64   `json:"calibration_score"`
	TrainedAt        time.Time `json:"trained_at"`
}

// Artifacts bundles everything the trained mode needs: one serialized model
// per ensemble member, the feature-scaling transform, and the metadata
// record.
type Artifacts struct {
	Forest   *ml.RandomForest       `json:"forest"`
	Boost    *ml.GradientBoost      `json:"boost"`
	Logistic *ml.LogisticRegression `json:"logistic"`
	Scaler   *ml.StandardScaler     `json:"scaler"`
	Meta     ArtifactMeta           `json:"meta"`
}

// Complete reports whether every member needed for trained mode is present.
func (a *Artifacts) Complete() bool {
	return a != nil &&
		a.Forest != nil && a.Forest.Trained() &&
		a.Boost != nil && a.Boost.Trained() &&
		a.Logistic != nil && a.Logistic.Trained() &&
		a.Scaler != nil && a.Scaler.Fitted()
}

// ArtifactStore persists trained model artifacts. Load returns
// domain.ErrArtifactNotFound (possibly wrapped) when nothing is stored;
// partial artifacts load as incomplete rather than failing.
type ArtifactStore interface {
	Save(artifacts *Artifacts) error
	Load() (*Artifacts, error)
}
