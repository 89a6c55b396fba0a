// Package controller exposes interactor use cases as named operations.
//
// A Controller is built with the explicit list of operations it serves.
// Each operation has a Handler; the default handlers delegate to the
// matching interactor method. Callers dispatch by name, which keeps the
// controllers independent of any transport.
package controller

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/interactor"
	"github.com/storefront/backend/internal/application/scope"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// UseCases is the interactor surface a controller delegates to.
// *interactor.Interactor implements it; resource interactors embed it and
// override single use cases.
type UseCases interface {
	Name() string
	Operations() []string
	Create(ctx context.Context, dto any, opts ...interactor.CallOption) (any, error)
	Update(ctx context.Context, id uuid.UUID, dto any, opts ...interactor.CallOption) (any, error)
	PatchList(ctx context.Context, dto any, createExtra, updateExtra map[string]any) error
	Delete(ctx context.Context, id uuid.UUID, opts ...interactor.CallOption) error
	Detail(ctx context.Context, q shared.Query, opts ...interactor.CallOption) (any, error)
	DetailByPK(ctx context.Context, id uuid.UUID, opts ...interactor.CallOption) (any, error)
	DetailByExternalCode(ctx context.Context, code, codeType string, opts ...interactor.CallOption) (any, error)
	Retrieve(ctx context.Context, q shared.ListQuery, opts ...interactor.CallOption) (any, error)
	Search(ctx context.Context, q shared.SearchQuery, opts ...interactor.CallOption) (any, error)
}

// Request carries the arguments of one operation. Each operation reads the
// fields it needs.
type Request struct {
	ID          uuid.UUID
	Code        string
	CodeType    string
	Search      string
	Query       shared.Query
	Page        shared.Page
	Body        any
	CreateExtra map[string]any
	UpdateExtra map[string]any
	Options     []interactor.CallOption
}

// Handler serves one operation.
type Handler func(ctx context.Context, req Request) (any, error)

// Controller dispatches named operations to handlers.
type Controller struct {
	name     string
	useCases UseCases
	handlers map[string]Handler
	filters  shared.Filters
	frame    *scope.Frame
	options  []interactor.CallOption
}

// Option configures a Controller
type Option func(*Controller)

// WithFilters adds filters to the query of every read operation.
func WithFilters(filters shared.Filters) Option {
	return func(c *Controller) {
		if c.filters == nil {
			c.filters = shared.Filters{}
		}
		for k, v := range filters {
			c.filters[k] = v
		}
	}
}

// WithReturnTypes sets result schemas for every call. They are pushed as a
// scope frame, so they beat the interactor defaults but not call options.
func WithReturnTypes(rt shared.ReturnTypes) Option {
	return func(c *Controller) {
		if c.frame == nil {
			c.frame = &scope.Frame{}
		}
		c.frame.ReturnTypes = rt
	}
}

// WithRequiredFields adds fields every create must set.
func WithRequiredFields(fields ...string) Option {
	return func(c *Controller) {
		if c.frame == nil {
			c.frame = &scope.Frame{}
		}
		c.frame.RequiredFields = append(c.frame.RequiredFields, fields...)
	}
}

// WithCallOptions adds interactor call options to every call.
func WithCallOptions(opts ...interactor.CallOption) Option {
	return func(c *Controller) { c.options = append(c.options, opts...) }
}

// WithHandler registers h for op, replacing the default handler.
func WithHandler(op string, h Handler) Option {
	return func(c *Controller) { c.handlers[op] = h }
}

// New creates a controller serving ops through useCases. Every op must be
// one the interactor can serve or have a handler set with WithHandler.
func New(useCases UseCases, ops []string, opts ...Option) (*Controller, error) {
	if useCases == nil {
		return nil, shared.NewConfigurationError("controller", "interactor is not set")
	}
	c := &Controller{
		name:     useCases.Name(),
		useCases: useCases,
		handlers: make(map[string]Handler, len(ops)),
	}
	for _, opt := range opts {
		opt(c)
	}

	available := useCases.Operations()
	for _, op := range ops {
		if _, ok := c.handlers[op]; ok {
			continue
		}
		h := c.defaultHandler(op)
		if h == nil || !slices.Contains(available, op) {
			return nil, shared.NewConfigurationError(c.name, "operation %q is not served by the interactor", op)
		}
		c.handlers[op] = h
	}
	return c, nil
}

// Name returns the controller name.
func (c *Controller) Name() string {
	return c.name
}

// Names returns the registered operations in sorted order.
func (c *Controller) Names() []string {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Has reports whether op is registered.
func (c *Controller) Has(op string) bool {
	_, ok := c.handlers[op]
	return ok
}

// Call runs op with req.
func (c *Controller) Call(ctx context.Context, op string, req Request) (any, error) {
	h, ok := c.handlers[op]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", c.name, op, shared.ErrUnsupported)
	}

	ctx = logger.WithOperation(ctx, c.name+"."+op)
	if c.frame != nil {
		var pop func()
		ctx, pop = scope.With(ctx, *c.frame)
		defer pop()
	}
	req.Options = append(slices.Clone(c.options), req.Options...)

	start := time.Now()
	out, err := h(ctx, req)
	log := logger.L(ctx).With(zap.Duration("duration", time.Since(start)))
	if err != nil {
		log.Debug("Operation failed", zap.Error(err))
		return nil, err
	}
	log.Debug("Operation completed")
	return out, nil
}

func (c *Controller) query(q shared.Query) shared.Query {
	if len(c.filters) == 0 {
		return q
	}
	filters := make(shared.Filters, len(q.Filters)+len(c.filters))
	for k, v := range q.Filters {
		filters[k] = v
	}
	for k, v := range c.filters {
		filters[k] = v
	}
	q.Filters = filters
	return q
}

func (c *Controller) defaultHandler(op string) Handler {
	u := c.useCases
	switch op {
	case shared.OpCreate:
		return func(ctx context.Context, req Request) (any, error) {
			return u.Create(ctx, req.Body, req.Options...)
		}
	case shared.OpUpdate:
		return func(ctx context.Context, req Request) (any, error) {
			return u.Update(ctx, req.ID, req.Body, req.Options...)
		}
	case shared.OpPatchList:
		return func(ctx context.Context, req Request) (any, error) {
			return nil, u.PatchList(ctx, req.Body, req.CreateExtra, req.UpdateExtra)
		}
	case shared.OpDelete:
		return func(ctx context.Context, req Request) (any, error) {
			return req.ID, u.Delete(ctx, req.ID, req.Options...)
		}
	case shared.OpDetail:
		return func(ctx context.Context, req Request) (any, error) {
			return u.Detail(ctx, c.query(req.Query), req.Options...)
		}
	case shared.OpDetailByPK:
		return func(ctx context.Context, req Request) (any, error) {
			return u.DetailByPK(ctx, req.ID, req.Options...)
		}
	case shared.OpDetailByExternalCode:
		return func(ctx context.Context, req Request) (any, error) {
			return u.DetailByExternalCode(ctx, req.Code, req.CodeType, req.Options...)
		}
	case shared.OpRetrieve:
		return func(ctx context.Context, req Request) (any, error) {
			return u.Retrieve(ctx, shared.ListQuery{Query: c.query(req.Query), Page: req.Page}, req.Options...)
		}
	case shared.OpSearch:
		return func(ctx context.Context, req Request) (any, error) {
			return u.Search(ctx, shared.SearchQuery{Search: req.Search, Query: c.query(req.Query), Page: req.Page}, req.Options...)
		}
	}
	return nil
}
