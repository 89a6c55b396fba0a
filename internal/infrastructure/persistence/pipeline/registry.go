// Package pipeline registers named operations and wraps each one, exactly
// once, with transaction scope, result conversion and error redirection.
//
// The wrapping order is fixed. The transaction is innermost so conversion
// only sees committed results, and redirects are outermost so errors from
// conversion or commit are still translated.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/convert"
)

// Invocation carries the arguments of one operation call.
type Invocation struct {
	Op      string
	Args    []any
	Options shared.CallOptions
}

// Arg returns the i-th argument or nil.
func (inv *Invocation) Arg(i int) any {
	if i < 0 || i >= len(inv.Args) {
		return nil
	}
	return inv.Args[i]
}

// Handler implements an operation.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Converter converts raw operation results.
type Converter interface {
	Convert(raw any, mode shared.ResultMode, path *convert.Path) (any, error)
}

// Operation describes one named operation and how it is wrapped.
type Operation struct {
	Name          string
	Handler       Handler
	Atomic        bool
	ConvertReturn bool
	ConvertPath   *convert.Path
	// Redirects apply to this operation only, before the registry-wide ones
	Redirects []Redirect
}

// Recorder receives the outcome of every call.
type Recorder interface {
	RecordOperation(ctx context.Context, component, op string, err error, seconds float64)
}

// Option configures a Registry
type Option func(*Registry)

// WithTransactor sets the transaction scope used by atomic operations.
func WithTransactor(tx shared.Transactor) Option {
	return func(r *Registry) { r.transactor = tx }
}

// WithConverter sets the converter used by converting operations.
func WithConverter(c Converter) Option {
	return func(r *Registry) { r.converter = c }
}

// WithRedirects adds redirects applied to every operation.
func WithRedirects(redirects ...Redirect) Option {
	return func(r *Registry) { r.redirects = append(r.redirects, redirects...) }
}

// WithDefaultRedirects sets the storage redirects applied after all others.
func WithDefaultRedirects(redirects ...Redirect) Option {
	return func(r *Registry) { r.defaults = redirects }
}

// WithRecorder reports every call to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// Registry holds the operations of one component.
type Registry struct {
	component  string
	transactor shared.Transactor
	converter  Converter
	redirects  []Redirect
	defaults   []Redirect
	recorder   Recorder

	mu        sync.RWMutex
	ops       map[string]Operation
	wrapped   map[string]Handler
	finalized bool
}

// NewRegistry creates an empty registry for component.
func NewRegistry(component string, opts ...Option) *Registry {
	r := &Registry{
		component: component,
		ops:       make(map[string]Operation),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Component returns the name the registry was created with.
func (r *Registry) Component() string {
	return r.component
}

// Register adds operations. An operation registered under an existing name
// replaces the earlier one.
func (r *Registry) Register(ops ...Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return shared.NewConfigurationError(r.component, "cannot register operations after finalize")
	}
	for _, op := range ops {
		if op.Name == "" {
			return shared.NewConfigurationError(r.component, "operation without a name")
		}
		r.ops[op.Name] = op
	}
	return nil
}

// MustRegister is Register that panics on error, for package-level setup.
func (r *Registry) MustRegister(ops ...Operation) *Registry {
	if err := r.Register(ops...); err != nil {
		panic(err)
	}
	return r
}

// Finalize validates every operation and wraps it. Calling it again is a no-op.
func (r *Registry) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return nil
	}

	wrapped := make(map[string]Handler, len(r.ops))
	for name, op := range r.ops {
		if op.Handler == nil {
			return shared.NewConfigurationError(r.component, "operation %q has no handler", name)
		}
		if op.Atomic && r.transactor == nil {
			return shared.NewConfigurationError(r.component, "operation %q is atomic but no transactor is set", name)
		}
		if op.ConvertReturn && r.converter == nil {
			return shared.NewConfigurationError(r.component, "operation %q converts its result but no converter is set", name)
		}
		wrapped[name] = r.wrap(op)
	}

	r.wrapped = wrapped
	r.finalized = true
	return nil
}

func (r *Registry) wrap(op Operation) Handler {
	h := op.Handler
	if op.Atomic {
		h = atomic(r.transactor, h)
	}
	if op.ConvertReturn {
		h = converting(r.converter, op.ConvertPath, h)
	}
	for _, chain := range [][]Redirect{op.Redirects, r.redirects, r.defaults} {
		for _, rd := range chain {
			h = redirecting(rd, h)
		}
	}
	return observe(r.component, op.Name, r.recorder, h)
}

// Finalized reports whether Finalize has run.
func (r *Registry) Finalized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finalized
}

// Names lists registered operation names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether an operation is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ops[name]
	return ok
}

// Operation returns the registered descriptor for name.
func (r *Registry) Operation(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Call runs the wrapped operation.
func (r *Registry) Call(ctx context.Context, name string, options shared.CallOptions, args ...any) (any, error) {
	r.mu.RLock()
	finalized := r.finalized
	h, ok := r.wrapped[name]
	r.mu.RUnlock()

	if !finalized {
		return nil, shared.NewConfigurationError(r.component, "operation %q called before finalize", name)
	}
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", r.component, name, shared.ErrUnsupported)
	}
	return h(ctx, &Invocation{Op: name, Args: args, Options: options})
}

func atomic(tx shared.Transactor, next Handler) Handler {
	return func(ctx context.Context, inv *Invocation) (any, error) {
		var out any
		err := tx.InTransaction(ctx, func(ctx context.Context) error {
			var err error
			out, err = next(ctx, inv)
			return err
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func converting(c Converter, path *convert.Path, next Handler) Handler {
	return func(ctx context.Context, inv *Invocation) (any, error) {
		out, err := next(ctx, inv)
		if err != nil {
			return nil, err
		}
		return c.Convert(out, inv.Options.Mode, path)
	}
}
