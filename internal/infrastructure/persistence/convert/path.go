package convert

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrBadPath is returned when a convert path does not address a value.
var ErrBadPath = errors.New("convert path does not match result")

// Path addresses one element inside a composite result. Int steps index
// sequences; string steps select map keys or struct fields. The addressed
// slot must be able to hold the converted value, which in practice means
// an interface-typed slot such as a map[string]any value.
type Path struct {
	steps []any
}

// NewPath creates a path from int and string steps.
func NewPath(steps ...any) *Path {
	return &Path{steps: steps}
}

// Empty reports whether the path has no steps.
func (p *Path) Empty() bool {
	return p == nil || len(p.steps) == 0
}

func (p *Path) String() string {
	parts := make([]string, len(p.steps))
	for i, s := range p.steps {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ".")
}

// Apply replaces the addressed value with fn(value) and returns the
// updated container.
func (p *Path) Apply(container any, fn func(any) (any, error)) (any, error) {
	if container == nil {
		return nil, fmt.Errorf("%w: %s on nil", ErrBadPath, p)
	}
	out, err := p.apply(reflect.ValueOf(container), 0, fn)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (p *Path) apply(v reflect.Value, depth int, fn func(any) (any, error)) (reflect.Value, error) {
	if depth == len(p.steps) {
		res, err := fn(v.Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		if res == nil {
			return reflect.Zero(v.Type()), nil
		}
		return reflect.ValueOf(res), nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Value{}, p.errorf(depth, "nil value")
		}
		return p.apply(v.Elem(), depth, fn)
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Value{}, p.errorf(depth, "nil pointer")
		}
		elem := v.Elem()
		updated, err := p.apply(elem, depth, fn)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := p.assign(elem, updated, depth); err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	}

	switch step := p.steps[depth].(type) {
	case int:
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return reflect.Value{}, p.errorf(depth, "index into %s", v.Type())
		}
		if step < 0 || step >= v.Len() {
			return reflect.Value{}, p.errorf(depth, "index %d out of range", step)
		}
		if v.Kind() == reflect.Array {
			c := reflect.New(v.Type()).Elem()
			c.Set(v)
			v = c
		}
		item := v.Index(step)
		updated, err := p.apply(item, depth+1, fn)
		if err != nil {
			return reflect.Value{}, err
		}
		return v, p.assign(item, updated, depth)
	case string:
		switch v.Kind() {
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, p.errorf(depth, "key into %s", v.Type())
			}
			key := reflect.ValueOf(step).Convert(v.Type().Key())
			item := v.MapIndex(key)
			if !item.IsValid() {
				return reflect.Value{}, p.errorf(depth, "missing key %q", step)
			}
			updated, err := p.apply(item, depth+1, fn)
			if err != nil {
				return reflect.Value{}, err
			}
			if !updated.Type().AssignableTo(v.Type().Elem()) {
				return reflect.Value{}, p.errorf(depth, "cannot store %s in %s", updated.Type(), v.Type().Elem())
			}
			v.SetMapIndex(key, updated)
			return v, nil
		case reflect.Struct:
			c := reflect.New(v.Type()).Elem()
			c.Set(v)
			field := c.FieldByName(step)
			if !field.IsValid() || !field.CanSet() {
				return reflect.Value{}, p.errorf(depth, "no field %q in %s", step, v.Type())
			}
			updated, err := p.apply(field, depth+1, fn)
			if err != nil {
				return reflect.Value{}, err
			}
			return c, p.assign(field, updated, depth)
		}
		return reflect.Value{}, p.errorf(depth, "key into %s", v.Type())
	}
	return reflect.Value{}, p.errorf(depth, "unsupported step %T", p.steps[depth])
}

func (p *Path) assign(slot, value reflect.Value, depth int) error {
	if !value.Type().AssignableTo(slot.Type()) {
		return p.errorf(depth, "cannot store %s in %s", value.Type(), slot.Type())
	}
	slot.Set(value)
	return nil
}

func (p *Path) errorf(depth int, format string, args ...any) error {
	return fmt.Errorf("%w: %s at step %d: %s", ErrBadPath, p, depth, fmt.Sprintf(format, args...))
}
