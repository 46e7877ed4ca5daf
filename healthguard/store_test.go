package healthguard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func TestNewArtifactStore_Local(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{}`)
	store, err := NewArtifactStore(StoreConfig{Type: "LOCAL", Dir: dir})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	data, err := store.Fetch(context.Background(), "a.json")
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}

func TestNewArtifactStore_Errors(t *testing.T) {
	_, err := NewArtifactStore(StoreConfig{})
	require.Error(t, err)
	_, err = NewArtifactStore(StoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = NewArtifactStore(StoreConfig{Type: "local"})
	require.Error(t, err)
	_, err = NewArtifactStore(StoreConfig{Type: "s3"})
	require.Error(t, err)
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	lp := store.(localPather)

	for _, name := range []string{"../secret.json", "..", filepath.Join(string(filepath.Separator), "etc", "passwd")} {
		_, err := lp.LocalPath(name)
		require.Error(t, err, name)
	}
	path, err := lp.LocalPath("sub/model.json")
	require.NoError(t, err)
	require.Equal(t, "model.json", filepath.Base(path))
}

type fakeS3 struct {
	objects map[string]string
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestS3Store_Fetch(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"models/v1/cardio_scaler.json": `{"type":"identity","n_features":13}`}}
	store := &s3Store{client: fake, bucket: "health", prefix: "models/v1"}
	require.Equal(t, "s3", store.Type())

	data, err := store.Fetch(context.Background(), "cardio_scaler.json")
	require.NoError(t, err)
	require.Contains(t, string(data), "identity")
	require.Equal(t, "health", aws.ToString(fake.input.Bucket))
	require.Equal(t, "models/v1/cardio_scaler.json", aws.ToString(fake.input.Key))

	_, err = store.Fetch(context.Background(), "missing.json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "s3://health/models/v1/missing.json")

	_, err = store.Fetch(context.Background(), "")
	require.Error(t, err)
}

func TestS3Store_LoaderServesJSONArtifacts(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"diabetes_model.json":  `{"type":"linear","coef":[0,0,0,0,0,0,1,0],"intercept":-6.5}`,
		"diabetes_scaler.json": `{"type":"identity","n_features":8}`,
	}}
	loader, err := NewArtifactLoader(&s3Store{client: fake, bucket: "health"}, 1, "", nil)
	require.NoError(t, err)

	pair, err := loader.Load(context.Background(), "diabetes_model.json", "diabetes_scaler.json")
	require.NoError(t, err)
	require.Equal(t, 8, pair.Classifier.NumFeatures())
	pair.Release()

	_, err = loader.Load(context.Background(), "cardio_model.onnx", "cardio_scaler.json")
	require.ErrorIs(t, err, ErrArtifactUnavailable)
}
