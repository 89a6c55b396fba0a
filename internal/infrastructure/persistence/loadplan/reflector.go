// Package loadplan derives eager-loading plans from the shape of result schemas.
//
// A schema is a plain struct describing what a caller wants back. Every schema
// field whose name matches a relation of the storage model becomes part of the
// plan: single-valued relations are joined in the same query, multi-valued
// ones are preloaded with a follow-up query. Nested schemas recurse.
package loadplan

import (
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"

	"github.com/storefront/backend/internal/domain/shared"
)

// Kind tells how a relation is loaded.
type Kind int

const (
	// KindSelect loads a single-valued relation with a join
	KindSelect Kind = iota
	// KindPrefetch loads a multi-valued relation with a separate query
	KindPrefetch
)

func (k Kind) String() string {
	if k == KindSelect {
		return "select"
	}
	return "prefetch"
}

// Cardinality is the number of related rows on the other side.
type Cardinality int

const (
	One Cardinality = iota
	Many
)

// Field describes one field of a schema.
type Field struct {
	Name string
	// Relation is the model relation the field feeds, from the `relation`
	// tag or the field name
	Relation string
	// Type is the declared element type with pointer and sequence wrappers removed
	Type reflect.Type
	// Nested is set when the field holds a nested schema
	Nested reflect.Type
	Many   bool
}

// Relation describes a relation declared on a storage model.
type Relation struct {
	Name        string
	Model       reflect.Type
	Cardinality Cardinality
	Kind        Kind
}

// Reflector lists the relations of a storage model, keyed by relation name.
type Reflector interface {
	Relations(model reflect.Type) (map[string]Relation, error)
}

var fieldCache sync.Map // map[reflect.Type][]Field

// SchemaFields returns the fields of a schema struct. Anonymous embedded
// structs are flattened. Results are cached per type.
func SchemaFields(t reflect.Type) ([]Field, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("loadplan: schema must be a struct, got %s", t.Kind())
	}

	if fields, ok := fieldCache.Load(t); ok {
		return fields.([]Field), nil
	}

	fields := collectFields(t, nil)
	fieldCache.Store(t, fields)
	return fields, nil
}

func collectFields(t reflect.Type, fields []Field) []Field {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			et := sf.Type
			for et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && shared.IsNestedStruct(et) {
				fields = collectFields(et, fields)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		relation := sf.Name
		if tag, ok := sf.Tag.Lookup("relation"); ok {
			if tag == "-" {
				continue
			}
			relation = tag
		}

		f := Field{
			Name:     sf.Name,
			Relation: relation,
			Type:     shared.ElemType(sf.Type),
			Many:     shared.IsMany(sf.Type),
		}
		if shared.IsNestedStruct(sf.Type) {
			f.Nested = f.Type
		}
		fields = append(fields, f)
	}
	return fields
}

// GormReflector reads relations from GORM schema metadata.
type GormReflector struct {
	cache *sync.Map
	namer schema.Namer
}

// NewGormReflector creates a reflector using namer for table and column
// names. A nil namer falls back to GORM's default naming strategy.
func NewGormReflector(namer schema.Namer) *GormReflector {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}
	return &GormReflector{cache: &sync.Map{}, namer: namer}
}

// Namer returns the naming strategy used for table and column names.
func (r *GormReflector) Namer() schema.Namer {
	return r.namer
}

// Parse returns the GORM schema of model.
func (r *GormReflector) Parse(model reflect.Type) (*schema.Schema, error) {
	for model.Kind() == reflect.Pointer {
		model = model.Elem()
	}
	s, err := schema.Parse(reflect.New(model).Interface(), r.cache, r.namer)
	if err != nil {
		return nil, fmt.Errorf("loadplan: parse %s: %w", model, err)
	}
	return s, nil
}

// Relations implements Reflector
func (r *GormReflector) Relations(model reflect.Type) (map[string]Relation, error) {
	s, err := r.Parse(model)
	if err != nil {
		return nil, err
	}

	relations := make(map[string]Relation, len(s.Relationships.Relations))
	for name, rel := range s.Relationships.Relations {
		out := Relation{Name: name, Model: rel.FieldSchema.ModelType}
		switch rel.Type {
		case schema.HasMany, schema.Many2Many:
			out.Cardinality = Many
			out.Kind = KindPrefetch
		default:
			out.Cardinality = One
			out.Kind = KindSelect
		}
		relations[name] = out
	}
	return relations, nil
}
