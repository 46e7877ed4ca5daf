package healthguard

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ArtifactStore reads serialized artifacts by name. Stores never write.
type ArtifactStore interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	Type() string
}

// localPather is implemented by stores whose artifacts already live on disk.
type localPather interface {
	LocalPath(name string) (string, error)
}

// StoreFactory builds a store from its configuration.
type StoreFactory func(cfg StoreConfig) (ArtifactStore, error)

var (
	storeRegistryMu sync.RWMutex
	storeRegistry   = map[string]StoreFactory{}
)

// RegisterStore makes a store type available to NewArtifactStore.
func RegisterStore(name string, factory StoreFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	storeRegistryMu.Lock()
	storeRegistry[key] = factory
	storeRegistryMu.Unlock()
}

// NewArtifactStore creates the store selected by cfg.Type.
func NewArtifactStore(cfg StoreConfig) (ArtifactStore, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("store.type is required")
	}
	storeRegistryMu.RLock()
	factory := storeRegistry[key]
	storeRegistryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported artifact store type: %s", cfg.Type)
	}
	return factory(cfg)
}
