package shared

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"
)

var (
	timeType    = reflect.TypeFor[time.Time]()
	scannerType = reflect.TypeFor[sql.Scanner]()
	valuerType  = reflect.TypeFor[driver.Valuer]()
)

// IsNestedStruct reports whether t (after unwrapping pointers, slices and
// arrays) is a struct describing nested data rather than a scalar such as
// time.Time or a driver.Valuer like decimal.Decimal.
func IsNestedStruct(t reflect.Type) bool {
	t = ElemType(t)
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(scannerType) {
		return false
	}
	return true
}

// ElemType unwraps pointer, slice and array types down to the element type.
// Byte slices are left alone.
func ElemType(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer:
			t = t.Elem()
		case reflect.Slice, reflect.Array:
			if t.Elem().Kind() == reflect.Uint8 {
				return t
			}
			t = t.Elem()
		default:
			return t
		}
	}
}

// IsMany reports whether t is a sequence of nested structs.
func IsMany(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() != reflect.Uint8
}

// Values flattens an entity struct (or pointer to one) into a map keyed by
// Go field name. Maps are copied as is. Nil pointers, nil slices and maps,
// and nested relation structs are left out; other pointers are dereferenced.
func Values(obj any) (map[string]any, error) {
	if obj == nil {
		return map[string]any{}, nil
	}
	if m, ok := obj.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}
	if f, ok := obj.(Filters); ok {
		return Values(map[string]any(f))
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]any{}, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("values: unsupported type %T", obj)
	}
	out := make(map[string]any)
	collectValues(v, out)
	return out, nil
}

func collectValues(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous && f.IsExported() {
			for fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					break
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct && IsNestedStruct(fv.Type()) {
				collectValues(fv, out)
				continue
			}
		}
		if !f.IsExported() || IsNestedStruct(f.Type) {
			continue
		}
		switch fv.Kind() {
		case reflect.Pointer:
			if fv.IsNil() {
				continue
			}
			out[f.Name] = fv.Elem().Interface()
		case reflect.Slice, reflect.Map, reflect.Interface:
			if fv.IsNil() {
				continue
			}
			out[f.Name] = fv.Interface()
		default:
			out[f.Name] = fv.Interface()
		}
	}
}
