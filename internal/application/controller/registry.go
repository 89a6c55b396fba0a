package controller

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

// Registry holds the controllers of an application by name.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Register adds controllers. Names must be unique.
func (r *Registry) Register(controllers ...*Controller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range controllers {
		if _, exists := r.controllers[c.Name()]; exists {
			return shared.NewConfigurationError("controller registry", "controller %q registered twice", c.Name())
		}
		r.controllers[c.Name()] = c
	}
	return nil
}

// Get returns the controller named name.
func (r *Registry) Get(name string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[name]
	return c, ok
}

// Names returns the controller names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Operations maps every controller name to its operations.
func (r *Registry) Operations() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.controllers))
	for name, c := range r.controllers {
		out[name] = c.Names()
	}
	return out
}

// Dispatch runs op on the controller named name.
func (r *Registry) Dispatch(ctx context.Context, name, op string, req Request) (any, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("controller %q: %w", name, shared.ErrUnsupported)
	}
	return c.Call(ctx, op, req)
}
