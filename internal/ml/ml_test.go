package ml

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

// separableSet builds a dataset where label 1 rows cluster high on the first
// two features and label 0 rows cluster low.
func separableSet(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(7))
	features := make([][]float64, 0, n)
	labels := make([]int, 0, n)
	for i := 0; i < n; i++ {
		label := i % 2
		base := 0.15
		if label == 1 {
			base = 0.85
		}
		features = append(features, []float64{
			base + rng.Float64()*0.1 - 0.05,
			base + rng.Float64()*0.1 - 0.05,
			rng.Float64(), // noise column
		})
		labels = append(labels, label)
	}
	return features, labels
}

func testLearns(t *testing.T, m Classifier) {
	t.Helper()
	features, labels := separableSet(120)
	if err := m.Train(features, labels); err != nil {
		t.Fatalf("%s Train: %v", m.Name(), err)
	}
	if !m.Trained() {
		t.Fatalf("%s should report trained", m.Name())
	}

	hi, err := m.PredictProba([]float64{0.9, 0.9, 0.5})
	if err != nil {
		t.Fatalf("%s PredictProba: %v", m.Name(), err)
	}
	lo, err := m.PredictProba([]float64{0.1, 0.1, 0.5})
	if err != nil {
		t.Fatalf("%s PredictProba: %v", m.Name(), err)
	}
	if hi <= 0.6 || lo >= 0.4 {
		t.Errorf("%s did not separate classes: hi=%.3f lo=%.3f", m.Name(), hi, lo)
	}
	if hi < 0 || hi > 1 || lo < 0 || lo > 1 {
		t.Errorf("%s probabilities out of range: hi=%v lo=%v", m.Name(), hi, lo)
	}
}

func TestClassifiersLearnSeparableData(t *testing.T) {
	t.Run("logistic", func(t *testing.T) { testLearns(t, NewLogisticRegression()) })
	t.Run("forest", func(t *testing.T) { testLearns(t, NewRandomForest()) })
	t.Run("boost", func(t *testing.T) { testLearns(t, NewGradientBoost()) })
}

func TestPredictBeforeTrain(t *testing.T) {
	for _, m := range []Classifier{NewLogisticRegression(), NewRandomForest(), NewGradientBoost()} {
		if _, err := m.PredictProba([]float64{0.5}); err == nil {
			t.Errorf("%s: expected ErrNotTrained", m.Name())
		}
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	m := NewLogisticRegression()
	if err := m.Train([][]float64{{1}}, []int{1}); err == nil {
		t.Error("expected error for too few samples")
	}
	features, labels := separableSet(50)
	labels[3] = 7
	if err := m.Train(features, labels); err == nil {
		t.Error("expected error for non-binary labels")
	}
	features[5] = []float64{1}
	labels[3] = 1
	if err := m.Train(features, labels); err == nil {
		t.Error("expected error for ragged matrix")
	}
}

func TestForestSerializationRoundtrip(t *testing.T) {
	features, labels := separableSet(80)
	m := NewRandomForest()
	if err := m.Train(features, labels); err != nil {
		t.Fatalf("Train: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored RandomForest
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	row := []float64{0.85, 0.82, 0.3}
	want, _ := m.PredictProba(row)
	got, err := restored.PredictProba(row)
	if err != nil {
		t.Fatalf("restored PredictProba: %v", err)
	}
	if math.Abs(want-got) > 1e-12 {
		t.Errorf("roundtrip prediction drifted: %v vs %v", want, got)
	}
}

func TestBoostSerializationRoundtrip(t *testing.T) {
	features, labels := separableSet(80)
	m := NewGradientBoost()
	if err := m.Train(features, labels); err != nil {
		t.Fatalf("Train: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored GradientBoost
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !restored.Trained() {
		t.Fatal("restored model should report trained")
	}

	row := []float64{0.1, 0.15, 0.9}
	want, _ := m.PredictProba(row)
	got, _ := restored.PredictProba(row)
	if math.Abs(want-got) > 1e-12 {
		t.Errorf("roundtrip prediction drifted: %v vs %v", want, got)
	}
}

func TestStandardScaler(t *testing.T) {
	s := &StandardScaler{}
	err := s.Fit([][]float64{
		{0, 10, 5},
		{2, 10, 7},
		{4, 10, 9},
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	row := s.Transform([]float64{2, 10, 7})
	for i, v := range row {
		if math.Abs(v) > 1e-9 {
			t.Errorf("mean row dim %d = %v, want 0", i, v)
		}
	}

	// Constant column must not divide by zero.
	row = s.Transform([]float64{4, 10, 9})
	if math.IsNaN(row[1]) || math.IsInf(row[1], 0) {
		t.Errorf("constant column produced %v", row[1])
	}

	// Unfitted scaler passes through.
	var unfitted StandardScaler
	out := unfitted.Transform([]float64{1, 2, 3})
	if out[0] != 1 || out[2] != 3 {
		t.Error("unfitted scaler should pass through")
	}
}
