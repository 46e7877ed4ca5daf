package healthguard

import (
	"fmt"
)

// Verdict texts used by the front ends and reports.
const (
	VerdictHighRisk = "High Risk"
	VerdictLowRisk  = "Low Risk"
	VerdictError    = "Error"
)

// Prediction is the binary result of one scoring request.
type Prediction struct {
	Disease Disease
	Label   int
	Vector  FeatureVector
}

// HighRisk reports whether the classifier flagged the patient.
func (p Prediction) HighRisk() bool {
	return p.Label == 1
}

// Verdict returns "High Risk" or "Low Risk".
func (p Prediction) Verdict() string {
	if p.HighRisk() {
		return VerdictHighRisk
	}
	return VerdictLowRisk
}

// Predict applies the pair's scaler and classifier to vec. The vector length must match
// both artifacts exactly.
func Predict(pair *ArtifactPair, vec FeatureVector) (int, error) {
	if pair == nil || pair.Classifier == nil || pair.Scaler == nil {
		return 0, fmt.Errorf("%w: incomplete artifact pair", ErrArtifactUnavailable)
	}
	if n := pair.Scaler.NumFeatures(); n != len(vec) {
		return 0, &ShapeError{Want: n, Got: len(vec)}
	}
	if n := pair.Classifier.NumFeatures(); n != len(vec) {
		return 0, &ShapeError{Want: n, Got: len(vec)}
	}
	scaled, err := pair.Scaler.Transform(vec)
	if err != nil {
		return 0, fmt.Errorf("scale features: %w", err)
	}
	label, err := pair.Classifier.Predict(scaled)
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("classifier returned non-binary class %d", label)
	}
	return label, nil
}
