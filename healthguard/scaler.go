package healthguard

import (
	"encoding/json"
	"fmt"
)

// Scaler applies the training-time feature transform.
type Scaler interface {
	Transform(x FeatureVector) (FeatureVector, error)
	NumFeatures() int
}

type scalerArtifact struct {
	Type       string    `json:"type"`
	NFeatures  int       `json:"n_features"`
	Mean       []float64 `json:"mean"`
	Scale      []float64 `json:"scale"`
	Min        []float64 `json:"min"`
	WithMean   *bool     `json:"with_mean,omitempty"`
	WithStdDev *bool     `json:"with_std,omitempty"`
}

// StandardScaler centers each feature on its mean and divides by its scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// NumFeatures returns the number of features the scaler was fit on.
func (s *StandardScaler) NumFeatures() int {
	return len(s.Scale)
}

// Transform returns (x - mean) / scale for every feature.
func (s *StandardScaler) Transform(x FeatureVector) (FeatureVector, error) {
	if len(x) != len(s.Scale) {
		return nil, &ShapeError{Want: len(s.Scale), Got: len(x)}
	}
	out := make(FeatureVector, len(x))
	for i, v := range x {
		mean := 0.0
		if len(s.Mean) > 0 {
			mean = s.Mean[i]
		}
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - mean) / scale
	}
	return out, nil
}

// MinMaxScaler maps each feature with x*scale + min.
type MinMaxScaler struct {
	Min   []float64
	Scale []float64
}

// NumFeatures returns the number of features the scaler was fit on.
func (s *MinMaxScaler) NumFeatures() int {
	return len(s.Scale)
}

// Transform returns x*scale + min for every feature.
func (s *MinMaxScaler) Transform(x FeatureVector) (FeatureVector, error) {
	if len(x) != len(s.Scale) {
		return nil, &ShapeError{Want: len(s.Scale), Got: len(x)}
	}
	out := make(FeatureVector, len(x))
	for i, v := range x {
		out[i] = v*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

// IdentityScaler passes a vector of the declared width through unchanged.
type IdentityScaler struct {
	Width int
}

// NumFeatures returns the declared width.
func (s IdentityScaler) NumFeatures() int {
	return s.Width
}

// Transform copies x.
func (s IdentityScaler) Transform(x FeatureVector) (FeatureVector, error) {
	if len(x) != s.Width {
		return nil, &ShapeError{Want: s.Width, Got: len(x)}
	}
	out := make(FeatureVector, len(x))
	copy(out, x)
	return out, nil
}

// DecodeScaler parses a JSON scaler artifact.
func DecodeScaler(data []byte) (Scaler, error) {
	var art scalerArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	switch art.Type {
	case "standard", "standard_scaler", "":
		if len(art.Scale) == 0 {
			return nil, fmt.Errorf("standard scaler: scale is required")
		}
		mean := art.Mean
		if art.WithMean != nil && !*art.WithMean {
			mean = nil
		}
		if len(mean) > 0 && len(mean) != len(art.Scale) {
			return nil, fmt.Errorf("standard scaler: %d means for %d scales", len(mean), len(art.Scale))
		}
		scale := art.Scale
		if art.WithStdDev != nil && !*art.WithStdDev {
			scale = make([]float64, len(art.Scale))
			for i := range scale {
				scale[i] = 1
			}
		}
		return &StandardScaler{Mean: mean, Scale: scale}, nil
	case "minmax", "min_max", "minmax_scaler":
		if len(art.Scale) == 0 || len(art.Min) != len(art.Scale) {
			return nil, fmt.Errorf("minmax scaler: min and scale must have the same non-zero length")
		}
		return &MinMaxScaler{Min: art.Min, Scale: art.Scale}, nil
	case "identity", "passthrough":
		if art.NFeatures <= 0 {
			return nil, fmt.Errorf("identity scaler: n_features is required")
		}
		return IdentityScaler{Width: art.NFeatures}, nil
	default:
		return nil, fmt.Errorf("unsupported scaler type %q", art.Type)
	}
}
