// Package ai holds the provider registry and the cross-cutting wrappers
// (throttling, circuit breaking, HTTP transport) shared by every adapter.
package ai

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// Registry maps provider ids to adapters. Adding a provider means one
// adapter implementation and one Register call.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.ProviderID]domain.ProviderAdapter
}

// NewRegistry returns a registry holding adapters.
func NewRegistry(adapters ...domain.ProviderAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[domain.ProviderID]domain.ProviderAdapter)}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter. Registering the same id twice is an error.
func (r *Registry) Register(a domain.ProviderAdapter) error {
	if a == nil {
		return fmt.Errorf("op=ai.Register: %w: nil adapter", domain.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.adapters[a.ID()]; dup {
		return fmt.Errorf("op=ai.Register: %w: duplicate provider %s", domain.ErrInvalidArgument, a.ID())
	}
	r.adapters[a.ID()] = a
	return nil
}

// Get returns the adapter for id.
func (r *Registry) Get(id domain.ProviderID) (domain.ProviderAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("op=ai.Get: %w: %s", domain.ErrUnknownProvider, id)
	}
	return a, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id domain.ProviderID) bool {
	_, err := r.Get(id)
	return err == nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []domain.ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.ProviderID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
