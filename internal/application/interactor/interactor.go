// Package interactor implements the generic use cases shared by every
// resource: create, update, patch_list, delete, the detail lookups,
// retrieve and search.
//
// An Interactor delegates to whatever capabilities its repository
// implements (see the capability interfaces in package shared). Calling an
// operation the repository cannot serve returns shared.ErrUnsupported.
// Result schemas are resolved per call, in this order: the call's
// WithReturnType, the request scope for the operation, the interactor for
// the operation, the scope and then the interactor detail schema (detail
// operations only), the scope general schema, the interactor general
// schema.
package interactor

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/trace"

	"github.com/storefront/backend/internal/application/scope"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/convert"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// DefaultLimit is the page size used when a list call sets none.
const DefaultLimit = 20

// Interactor runs the generic use cases over one repository.
type Interactor struct {
	name        string
	repo        any
	transactor  shared.Transactor
	returnTypes shared.ReturnTypes
	required    []string
	locked      []string
	mutable     map[string]bool
	itemsField  string
	allowBlank  bool
	limit       int
	hooks       PatchListHooks
	validator   *convert.Validator
}

// Option configures an Interactor
type Option func(*Interactor)

// WithReturnTypes sets the result schemas of the interactor.
func WithReturnTypes(rt shared.ReturnTypes) Option {
	return func(i *Interactor) { i.returnTypes = rt }
}

// WithRequiredFields lists fields that must be set on create.
func WithRequiredFields(fields ...string) Option {
	return func(i *Interactor) { i.required = append(i.required, fields...) }
}

// WithLockedFields lists fields an update may not change.
func WithLockedFields(fields ...string) Option {
	return func(i *Interactor) { i.locked = append(i.locked, fields...) }
}

// WithMutableFields exempts fields from WithLockedFields.
func WithMutableFields(fields ...string) Option {
	return func(i *Interactor) {
		for _, f := range fields {
			i.mutable[f] = true
		}
	}
}

// WithItemsField names the slice field read by PatchList. Default "Items".
func WithItemsField(name string) Option {
	return func(i *Interactor) { i.itemsField = name }
}

// AllowBlank lets create, update and patch_list items carry no values.
func AllowBlank() Option {
	return func(i *Interactor) { i.allowBlank = true }
}

// WithTransactor runs PatchList in a transaction of tx.
func WithTransactor(tx shared.Transactor) Option {
	return func(i *Interactor) { i.transactor = tx }
}

// WithDefaultLimit sets the page size of list calls with no limit.
func WithDefaultLimit(n int) Option {
	return func(i *Interactor) { i.limit = n }
}

// WithPatchListHooks sets the validation hooks of PatchList.
func WithPatchListHooks(h PatchListHooks) Option {
	return func(i *Interactor) { i.hooks = h }
}

// New creates an interactor named name over repo.
func New(name string, repo any, opts ...Option) (*Interactor, error) {
	if repo == nil || reflect.ValueOf(repo).Kind() == reflect.Pointer && reflect.ValueOf(repo).IsNil() {
		return nil, shared.NewConfigurationError(name, "repository is not set")
	}
	i := &Interactor{
		name:       name,
		repo:       repo,
		mutable:    make(map[string]bool),
		itemsField: "Items",
		limit:      DefaultLimit,
		hooks:      NopPatchListHooks{},
		validator:  convert.NewValidator(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Name returns the interactor name.
func (i *Interactor) Name() string {
	return i.name
}

// Repository returns the repository the interactor delegates to.
func (i *Interactor) Repository() any {
	return i.repo
}

// Operations lists the use cases the repository can serve.
func (i *Interactor) Operations() []string {
	var ops []string
	add := func(ok bool, names ...string) {
		if ok {
			ops = append(ops, names...)
		}
	}
	_, create := i.repo.(shared.Creator)
	_, update := i.repo.(shared.Updater)
	_, bulkCreate := i.repo.(shared.BulkCreator)
	_, bulkDelete := i.repo.(shared.BulkDeleter)
	_, del := i.repo.(shared.Deleter)
	_, detail := i.repo.(shared.Detailer)
	_, byPK := i.repo.(shared.PKDetailer)
	_, byCode := i.repo.(shared.ExternalCodeDetailer)
	_, retrieve := i.repo.(shared.Retriever)
	_, search := i.repo.(shared.Searcher)

	add(create, shared.OpCreate)
	add(update, shared.OpUpdate)
	add(bulkCreate && update && bulkDelete, shared.OpPatchList)
	add(del, shared.OpDelete)
	add(detail, shared.OpDetail)
	add(byPK, shared.OpDetailByPK)
	add(byCode, shared.OpDetailByExternalCode)
	add(retrieve, shared.OpRetrieve)
	add(search, shared.OpSearch)
	return ops
}

// capability returns the repository as T.
func capability[T any](i *Interactor, op string) (T, error) {
	c, ok := i.repo.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s.%s: %w", i.name, op, shared.ErrUnsupported)
	}
	return c, nil
}

// Call holds the per-call settings of a use case.
type Call struct {
	ReturnType reflect.Type
	// Paginated wraps list results in shared.Paginated; nil means true
	Paginated *bool
	Options   []shared.CallOption
}

// CallOption configures a Call
type CallOption func(*Call)

// WithReturnType sets the result schema of one call.
func WithReturnType(t reflect.Type) CallOption {
	return func(c *Call) { c.ReturnType = t }
}

// Paginated turns the pagination envelope of a list call on or off.
func Paginated(on bool) CallOption {
	return func(c *Call) { c.Paginated = &on }
}

// WithOptions passes repository call options through.
func WithOptions(opts ...shared.CallOption) CallOption {
	return func(c *Call) { c.Options = append(c.Options, opts...) }
}

// NewCall applies opts to a new Call.
func NewCall(opts ...CallOption) Call {
	var c Call
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// IsPaginated reports whether list results get the pagination envelope.
func (c Call) IsPaginated() bool {
	return c.Paginated == nil || *c.Paginated
}

// ReturnType resolves the result schema of op for ctx.
func (i *Interactor) ReturnType(ctx context.Context, op string, detail bool, call Call) reflect.Type {
	if call.ReturnType != nil {
		return call.ReturnType
	}
	s, hasScope := scope.FromContext(ctx)
	if hasScope {
		if t := s.OperationType(op); t != nil {
			return t
		}
	}
	if t := i.returnTypes.PerOperation[op]; t != nil {
		return t
	}
	if detail {
		if hasScope {
			if t := s.DetailType(); t != nil {
				return t
			}
		}
		if i.returnTypes.Detail != nil {
			return i.returnTypes.Detail
		}
	}
	if hasScope {
		if t := s.GeneralType(); t != nil {
			return t
		}
	}
	return i.returnTypes.General
}

// bind binds the resolved schema of op to the repository. A nil schema
// unbinds, so results convert to the entity.
func (i *Interactor) bind(ctx context.Context, op string, detail bool, call Call) {
	if b, ok := i.repo.(shared.DTOBinder); ok {
		b.WithDTO(i.ReturnType(ctx, op, detail, call))
	}
}

func (i *Interactor) span(ctx context.Context, op string) (context.Context, trace.Span) {
	return telemetry.StartServiceSpan(ctx, i.name, op)
}

func finish(span trace.Span, err error) {
	if err != nil {
		telemetry.RecordError(span, err)
	}
	span.End()
}
