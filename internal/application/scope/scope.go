// Package scope carries per-request state through context.Context.
//
// A request starts with Init and ends with Scope.Clear. In between, callers
// push frames that override the acting principal, result schemas or
// required fields for the calls they wrap; the innermost frame that sets a
// value wins. Each request owns its Scope.
//
// Usage:
//
//	ctx, s := scope.Init(ctx, scope.Frame{Principal: &userID})
//	defer s.Clear()
//
//	ctx, pop := scope.With(ctx, scope.Frame{
//		ReturnTypes: shared.ReturnTypes{General: reflect.TypeFor[catalog.ProductInfoDTO]()},
//	})
//	defer pop()
package scope

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

type scopeKey struct{}

// Frame is one level of request state. Zero fields inherit from outer frames.
type Frame struct {
	Principal      *uuid.UUID
	ReturnTypes    shared.ReturnTypes
	RequiredFields []string
}

// Scope is the frame stack of one request.
type Scope struct {
	mu     sync.RWMutex
	frames []Frame
}

// Init attaches a new scope holding root to ctx. The principal of root, if
// any, also tags log entries written through the returned context.
func Init(ctx context.Context, root Frame) (context.Context, *Scope) {
	s := &Scope{frames: []Frame{root}}
	ctx = context.WithValue(ctx, scopeKey{}, s)
	if root.Principal != nil {
		ctx = logger.WithPrincipalID(ctx, root.Principal.String())
	}
	return ctx, s
}

// FromContext returns the scope of ctx.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}

// With pushes f onto the scope of ctx, creating the scope when ctx has
// none. The returned func pops the frame.
func With(ctx context.Context, f Frame) (context.Context, func()) {
	s, ok := FromContext(ctx)
	if !ok {
		ctx, s = Init(ctx, Frame{})
	}
	if f.Principal != nil {
		ctx = logger.WithPrincipalID(ctx, f.Principal.String())
	}
	return ctx, s.Push(f)
}

// Push adds f as the innermost frame. The returned func removes it and
// every frame pushed after it.
func (s *Scope) Push(f Frame) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	depth := len(s.frames)
	s.frames = append(s.frames, f)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if len(s.frames) > depth {
				s.frames = s.frames[:depth]
			}
		})
	}
}

// Depth returns the number of frames.
func (s *Scope) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Clear drops every frame. The scope is empty afterwards.
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

// Principal returns the innermost principal.
func (s *Scope) Principal() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.frames) - 1; i >= 0; i-- {
		if p := s.frames[i].Principal; p != nil {
			return *p, true
		}
	}
	return uuid.Nil, false
}

// OperationType returns the innermost result schema set for op.
func (s *Scope) OperationType(op string) reflect.Type {
	return s.find(func(rt shared.ReturnTypes) reflect.Type { return rt.PerOperation[op] })
}

// DetailType returns the innermost result schema set for detail operations.
func (s *Scope) DetailType() reflect.Type {
	return s.find(func(rt shared.ReturnTypes) reflect.Type { return rt.Detail })
}

// GeneralType returns the innermost general result schema.
func (s *Scope) GeneralType() reflect.Type {
	return s.find(func(rt shared.ReturnTypes) reflect.Type { return rt.General })
}

func (s *Scope) find(pick func(shared.ReturnTypes) reflect.Type) reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.frames) - 1; i >= 0; i-- {
		if t := pick(s.frames[i].ReturnTypes); t != nil {
			return t
		}
	}
	return nil
}

// RequiredFields returns the required fields of every frame, outermost
// first, without duplicates.
func (s *Scope) RequiredFields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, f := range s.frames {
		for _, name := range f.RequiredFields {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Principal returns the principal acting in ctx. Its signature matches
// repository.PrincipalFunc.
func Principal(ctx context.Context) (uuid.UUID, bool) {
	s, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return s.Principal()
}
