package interactor

import (
	"context"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/application/scope"
	"github.com/storefront/backend/internal/domain/shared"
)

// Validation messages
const (
	MsgRequired  = "field required"
	MsgImmutable = "field cannot be changed"
)

// PatchListHooks validates the changes collected by PatchList before they
// are written. Items are value maps keyed by field name.
type PatchListHooks interface {
	Validate(ctx context.Context, create, update []map[string]any, remove []uuid.UUID) error
	ValidateCreate(ctx context.Context, items []map[string]any) error
	ValidateUpdate(ctx context.Context, items []map[string]any) error
	ValidateDelete(ctx context.Context, ids []uuid.UUID) error
}

// NopPatchListHooks accepts every change.
type NopPatchListHooks struct{}

func (NopPatchListHooks) Validate(context.Context, []map[string]any, []map[string]any, []uuid.UUID) error {
	return nil
}
func (NopPatchListHooks) ValidateCreate(context.Context, []map[string]any) error { return nil }
func (NopPatchListHooks) ValidateUpdate(context.Context, []map[string]any) error { return nil }
func (NopPatchListHooks) ValidateDelete(context.Context, []uuid.UUID) error      { return nil }

// ValidateRequiredFields checks that every required field of the
// interactor and of the request scope is set on obj. Fields are matched by
// Go name or JSON name; a zero value counts as missing.
func (i *Interactor) ValidateRequiredFields(ctx context.Context, obj any) error {
	fields := append([]string(nil), i.required...)
	if s, ok := scope.FromContext(ctx); ok {
		fields = append(fields, s.RequiredFields()...)
	}
	if len(fields) == 0 {
		return nil
	}

	verr := &shared.ValidationError{}
	seen := make(map[string]bool, len(fields))
	for _, name := range fields {
		if seen[name] {
			continue
		}
		seen[name] = true
		v, ok := lookup(obj, name)
		if !ok || isBlank(v) {
			verr.Add(MsgRequired, name)
		}
	}
	if verr.HasItems() {
		return verr
	}
	return nil
}

// ValidateChangedFields checks that modified keeps the locked fields of
// initial. Fields absent from modified are left alone.
func (i *Interactor) ValidateChangedFields(initial, modified any) error {
	verr := &shared.ValidationError{}
	for _, name := range i.locked {
		if i.mutable[name] {
			continue
		}
		after, ok := lookup(modified, name)
		if !ok || isNilValue(after) {
			continue
		}
		before, _ := lookup(initial, name)
		if !sameValue(before, after) {
			verr.Add(MsgImmutable, name)
		}
	}
	if verr.HasItems() {
		return verr
	}
	return nil
}

// lookup reads field name of obj, a struct, pointer to struct or value map.
func lookup(obj any, name string) (reflect.Value, bool) {
	if m, ok := obj.(map[string]any); ok {
		v, found := m[name]
		return reflect.ValueOf(v), found
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	if f := v.FieldByName(name); f.IsValid() {
		return f, true
	}
	t := v.Type()
	for idx := 0; idx < t.NumField(); idx++ {
		tag, _, _ := strings.Cut(t.Field(idx).Tag.Get("json"), ",")
		if tag == name {
			return v.Field(idx), true
		}
	}
	return reflect.Value{}, false
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func isBlank(v reflect.Value) bool {
	if isNilValue(v) {
		return true
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Map {
		return v.Len() == 0
	}
	return v.IsZero()
}

func sameValue(a, b reflect.Value) bool {
	x, y := deref(a), deref(b)
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	if dx, ok := x.(decimal.Decimal); ok {
		dy, ok := y.(decimal.Decimal)
		return ok && dx.Equal(dy)
	}
	return reflect.DeepEqual(x, y)
}

func deref(v reflect.Value) any {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
