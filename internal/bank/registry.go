package bank

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// SourceConfig carries everything a connector factory needs to build a client
// for one bank. Credential fields may be empty when the connector reads them
// from its own environment.
type SourceConfig struct {
	ID           string
	BaseURL      string
	HTTPTimeout  time.Duration
	ClientNumber string
	ClientSecret string
}

// Factory builds a connector from its source configuration.
type Factory func(cfg SourceConfig) (Connector, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{
	factories: map[string]Factory{},
}

// Register makes a connector factory available under a bank id.
// Registration is typically done once at startup; a nil factory or empty id
// is ignored.
func Register(id string, factory Factory) {
	id = normalizeID(id)
	if id == "" || factory == nil {
		return
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[id] = factory
}

// Open builds a connector for cfg.ID, failing when no factory is registered
// under that id.
func Open(cfg SourceConfig) (Connector, error) {
	id := normalizeID(cfg.ID)
	registry.mu.RLock()
	factory, ok := registry.factories[id]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no connector registered for bank %q (known: %s)", cfg.ID, strings.Join(Registered(), ", "))
	}
	return factory(cfg)
}

// Registered returns the sorted ids of all registered connectors.
func Registered() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	ids := make([]string, 0, len(registry.factories))
	for id := range registry.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
