package loadplan

import (
	"reflect"

	"github.com/storefront/backend/internal/domain/shared"
)

// ExtraSelector is implemented by schemas that need joins beyond their fields.
type ExtraSelector interface {
	ExtraSelectRelated() []string
}

// ExtraPrefetcher is implemented by schemas that need preloads beyond their
// fields.
type ExtraPrefetcher interface {
	ExtraPrefetchRelated() []string
}

// Binder keeps the schemas bound to a repository's models and the plans
// derived from them.
//
// Base plans are built once per (model, schema) pair and kept until Clean.
// Extra paths accumulate per pair and are unioned into the effective plan.
// A Binder belongs to a single request and is not safe for concurrent use.
type Binder struct {
	builder *Builder
	primary reflect.Type
	schemas map[reflect.Type]reflect.Type
	plans   map[pair]*LoadPlan
	extras  map[pair]*LoadPlan
}

// NewBinder creates a binder whose primary model is primary
func NewBinder(builder *Builder, primary reflect.Type) *Binder {
	return &Binder{
		builder: builder,
		primary: primary,
		schemas: make(map[reflect.Type]reflect.Type),
		plans:   make(map[pair]*LoadPlan),
		extras:  make(map[pair]*LoadPlan),
	}
}

// Primary returns the primary model type.
func (b *Binder) Primary() reflect.Type {
	return b.primary
}

// Bind binds binding.Schema to the primary model and every entry of
// binding.Others to its model. A nil schema unbinds the primary model.
func (b *Binder) Bind(binding shared.Binding) error {
	if err := b.bind(b.primary, binding); err != nil {
		return err
	}
	for model, other := range binding.Others {
		if err := b.bind(model, other); err != nil {
			return err
		}
	}
	return nil
}

func (b *Binder) bind(model reflect.Type, binding shared.Binding) error {
	if binding.Schema == nil {
		delete(b.schemas, model)
		return nil
	}

	key := pair{model: model, schema: binding.Schema}
	if _, ok := b.plans[key]; !ok {
		plan, err := b.builder.Build(model, binding.Schema)
		if err != nil {
			return err
		}
		b.plans[key] = plan
	}

	extra, ok := b.extras[key]
	if !ok {
		extra = NewLoadPlan()
		b.extras[key] = extra
	}
	declared := reflect.New(binding.Schema).Interface()
	if s, ok := declared.(ExtraSelector); ok {
		extra.Select(s.ExtraSelectRelated()...)
	}
	if p, ok := declared.(ExtraPrefetcher); ok {
		extra.Prefetch(p.ExtraPrefetchRelated()...)
	}
	extra.Select(binding.ExtraSelect...)
	extra.Prefetch(binding.ExtraPrefetch...)

	b.schemas[model] = binding.Schema
	return nil
}

// Schema returns the schema bound to model, or nil.
func (b *Binder) Schema(model reflect.Type) reflect.Type {
	return b.schemas[model]
}

// Plan returns the effective plan of model. It reports false when no schema
// is bound. The returned plan is a copy.
func (b *Binder) Plan(model reflect.Type) (*LoadPlan, bool) {
	schema, ok := b.schemas[model]
	if !ok {
		return nil, false
	}
	key := pair{model: model, schema: schema}
	return b.plans[key].Clone().Merge(b.extras[key]), true
}

// Clean drops every binding and cached plan.
func (b *Binder) Clean() {
	b.schemas = make(map[reflect.Type]reflect.Type)
	b.plans = make(map[pair]*LoadPlan)
	b.extras = make(map[pair]*LoadPlan)
}
