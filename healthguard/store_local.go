package healthguard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type localStore struct {
	dir string
}

func init() {
	RegisterStore("local", func(cfg StoreConfig) (ArtifactStore, error) {
		return NewLocalStore(cfg.Dir)
	})
}

// NewLocalStore reads artifacts from files under dir.
func NewLocalStore(dir string) (ArtifactStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return &localStore{dir: filepath.Clean(dir)}, nil
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) LocalPath(name string) (string, error) {
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *localStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	_ = ctx
	path, err := s.LocalPath(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
