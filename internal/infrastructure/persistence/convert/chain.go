package convert

import (
	"reflect"

	"github.com/storefront/backend/internal/domain/shared"
)

// SchemaSource reports the result schema currently bound to a model.
type SchemaSource interface {
	Schema(model reflect.Type) reflect.Type
}

// Chain converts raw results of one model.
//
// In full mode a result goes entity, extras, bound schema when a schema is
// bound, and extras, entity otherwise. Entity mode stops at the entity and
// original mode returns the raw value untouched.
type Chain struct {
	Model     reflect.Type
	Entity    reflect.Type
	Extra     []reflect.Type
	Source    SchemaSource
	Validator *Validator
}

// NewChain creates a chain for model with entity as its domain type.
func NewChain(model, entity reflect.Type, source SchemaSource, extra ...reflect.Type) (*Chain, error) {
	if entity == nil {
		return nil, shared.NewConfigurationError(typeName(model), "entity type is not set")
	}
	return &Chain{
		Model:     model,
		Entity:    entity,
		Extra:     extra,
		Source:    source,
		Validator: NewValidator(),
	}, nil
}

// Convert converts raw according to mode. With a path only the addressed
// element of raw is converted and the updated container is returned.
func (c *Chain) Convert(raw any, mode shared.ResultMode, path *Path) (any, error) {
	if mode == shared.ModeOriginal || raw == nil {
		return raw, nil
	}
	if path != nil && !path.Empty() {
		return path.Apply(raw, func(v any) (any, error) {
			return c.convertValue(v, mode)
		})
	}
	return c.convertValue(raw, mode)
}

func (c *Chain) convertValue(raw any, mode shared.ResultMode) (any, error) {
	if raw == nil {
		return nil, nil
	}
	v := reflect.ValueOf(raw)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		if e := v.Elem(); e.Kind() != reflect.Slice && e.Kind() != reflect.Array {
			break
		}
		v = v.Elem()
	}
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := c.one(v.Index(i).Interface(), mode)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}
	return c.one(raw, mode)
}

func (c *Chain) one(raw any, mode shared.ResultMode) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if mode == shared.ModeEntity {
		return c.Validator.Into(raw, c.Entity)
	}
	var schema reflect.Type
	if c.Source != nil {
		schema = c.Source.Schema(c.Model)
	}
	if schema == nil {
		return c.Validator.LayeredValidate(raw, c.Entity, c.Extra...)
	}
	layers := append([]reflect.Type{c.Entity}, c.Extra...)
	return c.Validator.LayeredValidate(raw, schema, layers...)
}

// As returns v as *T.
func As[T any](v any) (*T, error) {
	out, ok := v.(*T)
	if !ok {
		return nil, shared.NewDomainError("UNEXPECTED_RESULT", "unexpected result type "+typeName(reflect.TypeOf(v)))
	}
	return out, nil
}

// AsSlice returns a converted sequence as []*T.
func AsSlice[T any](v any) ([]*T, error) {
	switch items := v.(type) {
	case nil:
		return nil, nil
	case []*T:
		return items, nil
	case []any:
		out := make([]*T, 0, len(items))
		for _, item := range items {
			t, err := As[T](item)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	}
	return nil, shared.NewDomainError("UNEXPECTED_RESULT", "unexpected result type "+typeName(reflect.TypeOf(v)))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
