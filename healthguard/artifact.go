package healthguard

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ArtifactPair is a classifier together with the scaler it was trained behind.
// Pairs returned by ArtifactLoader.Load must be handed back with Release.
type ArtifactPair struct {
	Classifier Classifier
	Scaler     Scaler

	mu      sync.Mutex
	users   int
	retired bool
	closed  bool
}

func (p *ArtifactPair) acquire() {
	p.mu.Lock()
	p.users++
	p.mu.Unlock()
}

// Release gives back a pair obtained from Load. A pair that has left the cache is
// closed once its last user releases it.
func (p *ArtifactPair) Release() {
	p.mu.Lock()
	if p.users > 0 {
		p.users--
	}
	done := p.retired && p.users == 0
	p.mu.Unlock()
	if done {
		p.close()
	}
}

// retire marks p as evicted and closes it if nobody holds it.
func (p *ArtifactPair) retire() {
	p.mu.Lock()
	p.retired = true
	done := p.users == 0
	p.mu.Unlock()
	if done {
		p.close()
	}
}

func (p *ArtifactPair) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	if c, ok := p.Classifier.(io.Closer); ok {
		_ = c.Close()
	}
}

// ArtifactLoader resolves artifact pairs from a store and keeps them in a bounded cache.
type ArtifactLoader struct {
	store  ArtifactStore
	ortDLL string
	logger *zap.Logger

	mu    sync.Mutex
	cache *lru.Cache[string, *ArtifactPair]
}

// NewArtifactLoader constructs a loader over store caching up to size pairs.
func NewArtifactLoader(store ArtifactStore, size int, ortDLL string, logger *zap.Logger) (*ArtifactLoader, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if size <= 0 {
		size = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.NewWithEvict[string, *ArtifactPair](size, func(_ string, pair *ArtifactPair) {
		pair.retire()
	})
	if err != nil {
		return nil, fmt.Errorf("create artifact cache: %w", err)
	}
	return &ArtifactLoader{store: store, ortDLL: ortDLL, logger: logger, cache: cache}, nil
}

// Load returns the pair for the given artifact names, reading it on first use. The
// caller holds the pair until it calls Release; eviction never closes a held pair.
// Failures match ErrArtifactUnavailable and leave the cache untouched.
func (l *ArtifactLoader) Load(ctx context.Context, classifierName, scalerName string) (*ArtifactPair, error) {
	key := classifierName + "|" + scalerName
	l.mu.Lock()
	defer l.mu.Unlock()
	if pair, ok := l.cache.Get(key); ok {
		pair.acquire()
		return pair, nil
	}

	scaler, err := l.loadScaler(ctx, scalerName)
	if err != nil {
		l.logger.Warn("scaler load failed", zap.String("scaler", scalerName), zap.Error(err))
		return nil, &ArtifactError{Name: scalerName, Err: err}
	}
	classifier, err := l.loadClassifier(ctx, classifierName)
	if err != nil {
		l.logger.Warn("classifier load failed", zap.String("classifier", classifierName), zap.Error(err))
		return nil, &ArtifactError{Name: classifierName, Err: err}
	}
	pair := &ArtifactPair{Classifier: classifier, Scaler: scaler}
	pair.acquire()
	l.cache.Add(key, pair)
	l.logger.Info("artifact pair loaded",
		zap.String("store", l.store.Type()),
		zap.String("classifier", classifierName),
		zap.String("scaler", scalerName),
		zap.Int("features", classifier.NumFeatures()),
	)
	return pair, nil
}

// Cached reports how many pairs are held.
func (l *ArtifactLoader) Cached() int {
	return l.cache.Len()
}

// Purge drops every cached pair. Pairs not currently held are closed at once.
func (l *ArtifactLoader) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Purge()
}

func (l *ArtifactLoader) loadScaler(ctx context.Context, name string) (Scaler, error) {
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".json" {
		return nil, fmt.Errorf("unsupported scaler format %q", ext)
	}
	data, err := l.store.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return DecodeScaler(data)
}

func (l *ArtifactLoader) loadClassifier(ctx context.Context, name string) (Classifier, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		data, err := l.store.Fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		return DecodeClassifier(data)
	case ".onnx":
		return l.loadONNX(ctx, name)
	default:
		return nil, fmt.Errorf("unsupported classifier format %q", ext)
	}
}

func (l *ArtifactLoader) loadONNX(ctx context.Context, name string) (Classifier, error) {
	if lp, ok := l.store.(localPather); ok {
		path, err := lp.LocalPath(name)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return NewONNXClassifier(path, l.ortDLL)
	}
	data, err := l.store.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "healthguard-*.onnx")
	if err != nil {
		return nil, fmt.Errorf("create temp model: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write temp model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close temp model: %w", err)
	}
	classifier, err := NewONNXClassifier(tmp.Name(), l.ortDLL)
	if err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	classifier.tmpFile = tmp.Name()
	return classifier, nil
}
