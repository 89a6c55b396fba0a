package loadplan

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnmatchedRelation is returned in strict mode when a nested schema
	// field has no relation on the model.
	ErrUnmatchedRelation = errors.New("schema field does not match a model relation")
	// ErrCardinalityMismatch is returned in strict mode when a sequence field
	// meets a single-valued relation or the other way round.
	ErrCardinalityMismatch = errors.New("schema field cardinality does not match the relation")
)

// MatchedRelation pairs a schema field with a model relation.
type MatchedRelation struct {
	Field    string
	Relation string
	Kind     Kind
	// Model is the related model type
	Model reflect.Type
	// Nested is the nested schema of the field, nil for flat fields
	Nested reflect.Type
}

// Builder matches schemas against models and builds load plans.
type Builder struct {
	reflector Reflector
	strict    bool
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithStrict makes unmatched nested fields and cardinality mismatches errors
// instead of being skipped.
func WithStrict(strict bool) BuilderOption {
	return func(b *Builder) { b.strict = strict }
}

// NewBuilder creates a plan builder over reflector
func NewBuilder(reflector Reflector, opts ...BuilderOption) *Builder {
	b := &Builder{reflector: reflector}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Strict reports whether the builder rejects unmatched relations.
func (b *Builder) Strict() bool {
	return b.strict
}

// Match pairs every field of schema with the relation of model it feeds.
// Fields without a relation are skipped.
func (b *Builder) Match(model, schema reflect.Type) ([]MatchedRelation, error) {
	fields, err := SchemaFields(schema)
	if err != nil {
		return nil, err
	}
	relations, err := b.reflector.Relations(model)
	if err != nil {
		return nil, err
	}

	matched := make([]MatchedRelation, 0, len(relations))
	for _, f := range fields {
		rel, ok := relations[f.Relation]
		if !ok {
			if b.strict && f.Nested != nil {
				return nil, fmt.Errorf("%s.%s: %w", schema.Name(), f.Name, ErrUnmatchedRelation)
			}
			continue
		}
		if b.strict && f.Nested != nil && f.Many != (rel.Cardinality == Many) {
			return nil, fmt.Errorf("%s.%s -> %s.%s: %w", schema.Name(), f.Name, model.Name(), rel.Name, ErrCardinalityMismatch)
		}
		matched = append(matched, MatchedRelation{
			Field:    f.Name,
			Relation: rel.Name,
			Kind:     rel.Kind,
			Model:    rel.Model,
			Nested:   f.Nested,
		})
	}
	return matched, nil
}

type pair struct {
	model  reflect.Type
	schema reflect.Type
}

// Build computes the load plan of schema over model.
//
// A single-valued parent folds its nested selects and prefetches under its
// own path. A multi-valued parent keeps its nested plan as a sub-plan of its
// prefetch so it runs on the related model's own query.
func (b *Builder) Build(model, schema reflect.Type) (*LoadPlan, error) {
	return b.build(model, schema, map[pair]bool{})
}

func (b *Builder) build(model, schema reflect.Type, visiting map[pair]bool) (*LoadPlan, error) {
	key := pair{model: model, schema: schema}
	plan := NewLoadPlan()
	if visiting[key] {
		return plan, nil
	}
	visiting[key] = true
	defer delete(visiting, key)

	matched, err := b.Match(model, schema)
	if err != nil {
		return nil, err
	}

	for _, m := range matched {
		var sub *LoadPlan
		if m.Nested != nil {
			if sub, err = b.build(m.Model, m.Nested, visiting); err != nil {
				return nil, err
			}
		}

		switch m.Kind {
		case KindSelect:
			plan.Select(m.Relation)
			if sub != nil {
				plan.mergePrefixed(m.Relation, sub)
			}
		case KindPrefetch:
			plan.PrefetchNested(m.Relation, sub)
		}
	}
	return plan, nil
}
