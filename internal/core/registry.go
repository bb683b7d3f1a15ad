package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]Pipeline)
	registryMu sync.RWMutex
)

// Register adds a pipeline to the registry.
// Panics if the key is empty, already registered, or has no Build function.
func Register(p Pipeline) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToUpper(strings.TrimSpace(p.Key))
	if key == "" {
		panic("pipeline key is empty")
	}
	if p.Build == nil {
		panic(fmt.Sprintf("pipeline %s has no build function", key))
	}
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("pipeline already registered: %s", key))
	}

	p.Key = key
	registry[key] = p
}

// Get returns a pipeline by key, case-insensitively.
func Get(key string) (Pipeline, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[strings.ToUpper(strings.TrimSpace(key))]
	return p, ok
}

// All returns every registered pipeline sorted by key.
func All() []Pipeline {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Pipeline, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// PipelineCount returns the number of registered pipelines.
func PipelineCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered pipelines.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Pipeline)
}
