package repository

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/convert"
	"github.com/storefront/backend/internal/infrastructure/persistence/filter"
	"github.com/storefront/backend/internal/infrastructure/persistence/loadplan"
	"github.com/storefront/backend/internal/infrastructure/persistence/pipeline"
)

// Model is a GORM model served by a Repository.
type Model interface {
	TableName() string
	GetID() uuid.UUID
}

// PrincipalFunc returns the principal acting in ctx, if any.
type PrincipalFunc func(ctx context.Context) (uuid.UUID, bool)

// Column names stamped with the acting principal.
const (
	createdByField = "CreatedByID"
	updatedByField = "UpdatedByID"
	pkColumn       = "id"
)

var defaultOrder = []string{"created_at", "id"}

type config struct {
	component      string
	extra          []reflect.Type
	searchFields   []string
	searchReplaces map[string]string
	orderBy        map[string]string
	defaultOrder   []string
	strict         bool
	principal      PrincipalFunc
	redirects      []pipeline.Redirect
	recorder       pipeline.Recorder
	capabilities   []string
	overrides      []pipeline.Operation
	reflector      *loadplan.GormReflector
}

// Option configures a Repository
type Option func(*config)

// WithComponent names the repository in spans, logs and metrics. It
// defaults to the table name.
func WithComponent(name string) Option {
	return func(c *config) { c.component = name }
}

// WithExtraLayers adds validation layers run between entity and schema.
func WithExtraLayers(layers ...reflect.Type) Option {
	return func(c *config) { c.extra = append(c.extra, layers...) }
}

// WithSearchFields sets the lookups concatenated by Search, e.g. "name" or
// "category__name".
func WithSearchFields(fields ...string) Option {
	return func(c *config) { c.searchFields = fields }
}

// WithSearchReplaces adds substring replacements applied to both the search
// term and the searched text.
func WithSearchReplaces(replaces map[string]string) Option {
	return func(c *config) {
		if c.searchReplaces == nil {
			c.searchReplaces = make(map[string]string, len(replaces))
		}
		for k, v := range replaces {
			c.searchReplaces[k] = v
		}
	}
}

// WithOrderByMapping renames public ordering fields to model lookups.
func WithOrderByMapping(mapping map[string]string) Option {
	return func(c *config) { c.orderBy = mapping }
}

// WithDefaultOrder sets the ordering used when a query names none.
func WithDefaultOrder(fields ...string) Option {
	return func(c *config) { c.defaultOrder = fields }
}

// WithStrict makes unmatched schema relations binding errors.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithPrincipal stamps created-by and updated-by columns with the principal
// returned by fn.
func WithPrincipal(fn PrincipalFunc) Option {
	return func(c *config) { c.principal = fn }
}

// WithRedirects adds error redirects applied to every operation.
func WithRedirects(redirects ...pipeline.Redirect) Option {
	return func(c *config) { c.redirects = append(c.redirects, redirects...) }
}

// WithRecorder reports every operation call to rec.
func WithRecorder(rec pipeline.Recorder) Option {
	return func(c *config) { c.recorder = rec }
}

// WithCapabilities limits the registered operations to ops. By default every
// operation is registered.
func WithCapabilities(ops ...string) Option {
	return func(c *config) { c.capabilities = append(c.capabilities, ops...) }
}

// WithOperations registers ops after the built-in ones, replacing any
// operation with the same name.
func WithOperations(ops ...pipeline.Operation) Option {
	return func(c *config) { c.overrides = append(c.overrides, ops...) }
}

// WithReflector shares a schema reflector between repositories.
func WithReflector(r *loadplan.GormReflector) Option {
	return func(c *config) { c.reflector = r }
}

// Repository implements every capability of package shared for model M.
//
// Bound schemas and their load plans belong to the instance: a Repository
// serves one request at a time and is not safe for concurrent use.
type Repository[M Model] struct {
	store     *Store
	model     reflect.Type
	table     string
	schema    *schema.Schema
	reflector *loadplan.GormReflector
	binder    *loadplan.Binder
	renderer  *filter.Renderer
	chain     *convert.Chain
	registry  *pipeline.Registry
	cfg       config
	bindErr   error
}

// New creates a repository of M whose results convert to entity.
func New[M Model](store *Store, entity reflect.Type, opts ...Option) (*Repository[M], error) {
	model := reflect.TypeFor[M]()
	var zero M

	if store == nil {
		return nil, shared.NewConfigurationError(zero.TableName(), "store is not set")
	}
	cfg := config{defaultOrder: defaultOrder}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.component == "" {
		cfg.component = zero.TableName()
	}
	if cfg.reflector == nil {
		cfg.reflector = loadplan.NewGormReflector(store.db.NamingStrategy)
	}

	s, err := cfg.reflector.Parse(model)
	if err != nil {
		return nil, shared.NewConfigurationError(cfg.component, "parse model: %v", err)
	}

	r := &Repository[M]{
		store:     store,
		model:     model,
		table:     s.Table,
		schema:    s,
		reflector: cfg.reflector,
		binder:    loadplan.NewBinder(loadplan.NewBuilder(cfg.reflector, loadplan.WithStrict(cfg.strict)), model),
		renderer:  filter.NewRenderer(cfg.reflector, model),
		cfg:       cfg,
	}

	r.chain, err = convert.NewChain(model, entity, r.binder, cfg.extra...)
	if err != nil {
		return nil, err
	}

	regOpts := []pipeline.Option{
		pipeline.WithTransactor(store),
		pipeline.WithConverter(r.chain),
		pipeline.WithRedirects(cfg.redirects...),
		pipeline.WithDefaultRedirects(DefaultRedirects()...),
	}
	if cfg.recorder != nil {
		regOpts = append(regOpts, pipeline.WithRecorder(cfg.recorder))
	}
	r.registry = pipeline.NewRegistry(cfg.component, regOpts...)

	if err := r.registry.Register(r.selected()...); err != nil {
		return nil, err
	}
	if err := r.registry.Register(cfg.overrides...); err != nil {
		return nil, err
	}
	if err := r.registry.Finalize(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository[M]) selected() []pipeline.Operation {
	ops := r.operations()
	if len(r.cfg.capabilities) == 0 {
		return ops
	}
	keep := make(map[string]bool, len(r.cfg.capabilities))
	for _, name := range r.cfg.capabilities {
		keep[name] = true
	}
	out := ops[:0]
	for _, op := range ops {
		if keep[op.Name] {
			out = append(out, op)
		}
	}
	return out
}

func (r *Repository[M]) operations() []pipeline.Operation {
	return []pipeline.Operation{
		{Name: shared.OpCreate, Handler: r.create, Atomic: true},
		{Name: shared.OpBulkCreate, Handler: r.bulkCreate, Atomic: true},
		{Name: shared.OpUpdate, Handler: r.update, Atomic: true},
		{Name: shared.OpMultiUpdate, Handler: r.multiUpdate, Atomic: true},
		{Name: shared.OpBulkUpdate, Handler: r.bulkUpdate, Atomic: true},
		{Name: shared.OpUpdateOrCreate, Handler: r.updateOrCreate, Atomic: true},
		{
			Name:          shared.OpDetailOrCreate,
			Handler:       r.detailOrCreate,
			Atomic:        true,
			ConvertReturn: true,
			ConvertPath:   convert.NewPath("Object"),
		},
		{Name: shared.OpDelete, Handler: r.delete, Atomic: true},
		{Name: shared.OpBulkDelete, Handler: r.bulkDelete, Atomic: true},
		{Name: shared.OpDetail, Handler: r.detail, ConvertReturn: true},
		{Name: shared.OpDetailByPK, Handler: r.detailByPK, ConvertReturn: true},
		{Name: shared.OpDetailByExternalCode, Handler: r.detailByExternalCode, ConvertReturn: true},
		{Name: shared.OpRetrieve, Handler: r.retrieve, ConvertReturn: true},
		{Name: shared.OpCount, Handler: r.count},
		{Name: shared.OpSearch, Handler: r.search, ConvertReturn: true},
		{Name: shared.OpSearchCount, Handler: r.searchCount},
		{Name: shared.OpExists, Handler: r.exists},
		{Name: shared.OpGetByIDs, Handler: r.getByIDs, ConvertReturn: true},
		{Name: shared.OpGetIDs, Handler: r.getIDs},
	}
}

// Component returns the repository name.
func (r *Repository[M]) Component() string {
	return r.cfg.component
}

// Table returns the table of M.
func (r *Repository[M]) Table() string {
	return r.table
}

// Operations lists the registered operation names.
func (r *Repository[M]) Operations() []string {
	return r.registry.Names()
}

// Registry exposes the operation registry.
func (r *Repository[M]) Registry() *pipeline.Registry {
	return r.registry
}

// Store returns the connection provider.
func (r *Repository[M]) Store() *Store {
	return r.store
}

// WithDTO implements shared.DTOBinder. A binding error, such as an unmatched
// relation in strict mode, is returned by the next storage call.
func (r *Repository[M]) WithDTO(schema reflect.Type, opts ...shared.BindOption) {
	if err := r.binder.Bind(shared.NewBinding(schema, opts...)); err != nil {
		r.bindErr = err
	}
}

// CleanDTOContext implements shared.DTOBinder
func (r *Repository[M]) CleanDTOContext() {
	r.binder.Clean()
	r.bindErr = nil
}

// Plan returns the effective load plan of model, if a schema is bound.
func (r *Repository[M]) Plan(model reflect.Type) (*loadplan.LoadPlan, bool) {
	return r.binder.Plan(model)
}

// Objects returns the base query of M with the load plan of the bound
// schema applied.
func (r *Repository[M]) Objects(ctx context.Context) (*gorm.DB, error) {
	return r.ObjectsOf(ctx, r.model)
}

// ObjectsOf returns the base query of model with its bound load plan.
func (r *Repository[M]) ObjectsOf(ctx context.Context, model reflect.Type) (*gorm.DB, error) {
	if r.bindErr != nil {
		return nil, r.bindErr
	}
	db := r.store.DB(ctx).Model(reflect.New(model).Interface())
	if plan, ok := r.binder.Plan(model); ok {
		db = plan.Apply(db)
	}
	return db, nil
}

func (r *Repository[M]) call(ctx context.Context, op string, opts []shared.CallOption, args ...any) (any, error) {
	return r.registry.Call(ctx, op, shared.ApplyCallOptions(opts), args...)
}

// Create implements shared.Creator. It returns the primary key of the new row.
func (r *Repository[M]) Create(ctx context.Context, entity any, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpCreate, opts, entity)
}

// BulkCreate implements shared.BulkCreator. It returns the new primary keys.
func (r *Repository[M]) BulkCreate(ctx context.Context, entities []any, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpBulkCreate, opts, entities)
}

// Update implements shared.Updater. It returns the primary key of the row.
func (r *Repository[M]) Update(ctx context.Context, entity any, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpUpdate, opts, entity)
}

// MultiUpdate implements shared.MultiUpdater
func (r *Repository[M]) MultiUpdate(ctx context.Context, q shared.Query, values map[string]any) (int64, error) {
	out, err := r.call(ctx, shared.OpMultiUpdate, nil, q, values)
	return asCount(out, err)
}

// BulkUpdate implements shared.BulkUpdater. It returns the number of rows
// changed.
func (r *Repository[M]) BulkUpdate(ctx context.Context, entities []any, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpBulkUpdate, opts, entities)
}

// UpdateOrCreate implements shared.UpdateOrCreator. The result is an
// *shared.OrCreateResult holding the primary key.
func (r *Repository[M]) UpdateOrCreate(ctx context.Context, q shared.Query, values map[string]any, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpUpdateOrCreate, opts, q, values)
}

// DetailOrCreate implements shared.DetailOrCreator
func (r *Repository[M]) DetailOrCreate(ctx context.Context, q shared.Query, defaults map[string]any, opts ...shared.CallOption) (*shared.OrCreateResult, error) {
	out, err := r.call(ctx, shared.OpDetailOrCreate, opts, q, defaults)
	if err != nil {
		return nil, err
	}
	return convert.As[shared.OrCreateResult](out)
}

// Delete implements shared.Deleter
func (r *Repository[M]) Delete(ctx context.Context, id uuid.UUID, opts ...shared.CallOption) error {
	_, err := r.call(ctx, shared.OpDelete, opts, id)
	return err
}

// BulkDelete implements shared.BulkDeleter
func (r *Repository[M]) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	out, err := r.call(ctx, shared.OpBulkDelete, nil, ids)
	return asCount(out, err)
}

// Detail implements shared.Detailer
func (r *Repository[M]) Detail(ctx context.Context, q shared.Query, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpDetail, opts, q)
}

// DetailByPK implements shared.PKDetailer
func (r *Repository[M]) DetailByPK(ctx context.Context, id uuid.UUID, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpDetailByPK, opts, id)
}

// DetailByExternalCode implements shared.ExternalCodeDetailer
func (r *Repository[M]) DetailByExternalCode(ctx context.Context, code, codeType string, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpDetailByExternalCode, opts, code, codeType)
}

// Retrieve implements shared.Retriever
func (r *Repository[M]) Retrieve(ctx context.Context, q shared.ListQuery, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpRetrieve, opts, q)
}

// Count implements shared.Retriever
func (r *Repository[M]) Count(ctx context.Context, q shared.Query) (int64, error) {
	out, err := r.call(ctx, shared.OpCount, nil, q)
	return asCount(out, err)
}

// Search implements shared.Searcher
func (r *Repository[M]) Search(ctx context.Context, q shared.SearchQuery, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpSearch, opts, q)
}

// SearchCount implements shared.Searcher
func (r *Repository[M]) SearchCount(ctx context.Context, q shared.SearchQuery) (int64, error) {
	out, err := r.call(ctx, shared.OpSearchCount, nil, q)
	return asCount(out, err)
}

// Exists implements shared.ExistenceChecker
func (r *Repository[M]) Exists(ctx context.Context, q shared.Query) (bool, error) {
	out, err := r.call(ctx, shared.OpExists, nil, q)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

// GetByIDs implements shared.IDsGetter
func (r *Repository[M]) GetByIDs(ctx context.Context, ids []uuid.UUID, opts ...shared.CallOption) (any, error) {
	return r.call(ctx, shared.OpGetByIDs, opts, ids)
}

// GetIDs implements shared.IDsGetter
func (r *Repository[M]) GetIDs(ctx context.Context, q shared.Query) ([]uuid.UUID, error) {
	out, err := r.call(ctx, shared.OpGetIDs, nil, q)
	if err != nil {
		return nil, err
	}
	ids, _ := out.([]uuid.UUID)
	return ids, nil
}

func asCount(out any, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	n, _ := out.(int64)
	return n, nil
}
