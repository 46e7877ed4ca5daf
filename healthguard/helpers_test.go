package healthguard

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeHbA1cArtifacts writes a diabetes pair that flags HbA1c above 6.5 and returns the dir.
func writeHbA1cArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "diabetes_model.json", `{
		"type": "logistic_regression",
		"coef": [0, 0, 0, 0, 0, 0, 1, 0],
		"intercept": -6.5,
		"classes": [0, 1]
	}`)
	writeFile(t, dir, "diabetes_scaler.json", `{"type": "identity", "n_features": 8}`)
	return dir
}

func diabetesForm() Form {
	return Form{
		"gender":              "Male",
		"age":                 "45",
		"hypertension":        "No",
		"heart_disease":       "No",
		"smoking_history":     "Never",
		"bmi":                 "31.0",
		"HbA1c_level":         "7.2",
		"blood_glucose_level": "190",
	}
}

func cardioForm() Form {
	return Form{
		"age":      "54",
		"sex":      "Male",
		"cp":       "Asymptomatic",
		"trestbps": "140",
		"chol":     "239",
		"fbs":      "No",
		"restecg":  "Normal",
		"thalach":  "160",
		"exang":    "No",
		"oldpeak":  "1.2",
		"slope":    "Flat",
		"ca":       "0",
		"thal":     "Reversible Defect",
	}
}

type stubScaler struct{ width int }

func (s stubScaler) NumFeatures() int { return s.width }

func (s stubScaler) Transform(x FeatureVector) (FeatureVector, error) {
	out := make(FeatureVector, len(x))
	copy(out, x)
	return out, nil
}

type stubClassifier struct {
	width  int
	fn     func(FeatureVector) int
	closed bool
}

func (c *stubClassifier) NumFeatures() int { return c.width }

func (c *stubClassifier) Predict(x FeatureVector) (int, error) { return c.fn(x), nil }

func (c *stubClassifier) Close() error {
	c.closed = true
	return nil
}

// countingStore records every Fetch made through it.
type countingStore struct {
	ArtifactStore
	mu      sync.Mutex
	fetches []string
}

func (s *countingStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	s.fetches = append(s.fetches, name)
	s.mu.Unlock()
	return s.ArtifactStore.Fetch(ctx, name)
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetches)
}

func newCountingStore(t *testing.T, dir string) *countingStore {
	t.Helper()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	return &countingStore{ArtifactStore: store}
}
