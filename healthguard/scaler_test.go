package healthguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeScaler_Standard(t *testing.T) {
	s, err := DecodeScaler([]byte(`{"type":"standard","mean":[1,2],"scale":[2,0]}`))
	require.NoError(t, err)
	require.Equal(t, 2, s.NumFeatures())

	out, err := s.Transform(FeatureVector{3, 5})
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 3}, []float64(out), 1e-12)
}

func TestDecodeScaler_StandardWithoutMean(t *testing.T) {
	s, err := DecodeScaler([]byte(`{"type":"standard","mean":[10,10],"scale":[2,4],"with_mean":false}`))
	require.NoError(t, err)
	out, err := s.Transform(FeatureVector{4, 8})
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{2, 2}, []float64(out), 1e-12)
}

func TestDecodeScaler_MinMax(t *testing.T) {
	s, err := DecodeScaler([]byte(`{"type":"minmax","min":[0,1],"scale":[0.5,2]}`))
	require.NoError(t, err)
	out, err := s.Transform(FeatureVector{2, 3})
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 7}, []float64(out), 1e-12)
}

func TestDecodeScaler_Identity(t *testing.T) {
	s, err := DecodeScaler([]byte(`{"type":"identity","n_features":3}`))
	require.NoError(t, err)
	in := FeatureVector{1, 2, 3}
	out, err := s.Transform(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
	out[0] = 9
	require.Equal(t, 1.0, in[0])
}

func TestDecodeScaler_Errors(t *testing.T) {
	for name, data := range map[string]string{
		"bad json":          `{`,
		"unknown type":      `{"type":"robust","scale":[1]}`,
		"no scale":          `{"type":"standard"}`,
		"mean length":       `{"type":"standard","mean":[1],"scale":[1,1]}`,
		"minmax mismatch":   `{"type":"minmax","min":[0],"scale":[1,1]}`,
		"identity no width": `{"type":"identity"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeScaler([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestScalerTransform_ShapeMismatch(t *testing.T) {
	s := &StandardScaler{Scale: []float64{1, 1}}
	_, err := s.Transform(FeatureVector{1})
	require.ErrorIs(t, err, ErrShapeMismatch)
}
