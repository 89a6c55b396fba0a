// Package convert turns raw storage results into entities and result schemas.
//
// Every step copies the value into the next layer type by field name and
// validates the copy, so a result always satisfies each layer it passed.
package convert

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"

	"github.com/storefront/backend/internal/domain/shared"
)

// Defaulter is implemented by schemas that fill in defaults after copying.
type Defaulter interface {
	SetDefaults()
}

// Validator copies values between layer types and validates them.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *Validator {
	v := validator.New()
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates obj and returns a *shared.ValidationError on failure.
func (v *Validator) Struct(obj any) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	out := &shared.ValidationError{}
	for _, e := range validationErrors {
		loc := strings.Split(e.Namespace(), ".")
		if len(loc) > 1 {
			loc = loc[1:]
		}
		out.Add(validationMessage(e), loc...)
	}
	return out
}

// Into copies src into a new value of type t, applies defaults and
// validates it. The result is a pointer to t.
func (v *Validator) Into(src any, t reflect.Type) (any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	dst := reflect.New(t)
	if err := copier.CopyWithOption(dst.Interface(), src, copier.Option{DeepCopy: false}); err != nil {
		return nil, err
	}
	applyDefaults(dst)
	if t.Kind() == reflect.Struct {
		if err := v.Struct(dst.Interface()); err != nil {
			return nil, err
		}
	}
	return dst.Interface(), nil
}

// LayeredValidate passes obj through each layer in order, then through
// target. A nil target stops after the layers.
func (v *Validator) LayeredValidate(obj any, target reflect.Type, layers ...reflect.Type) (any, error) {
	current := obj
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		next, err := v.Into(current, layer)
		if err != nil {
			return nil, err
		}
		current = next
	}
	if target == nil {
		return current, nil
	}
	return v.Into(current, target)
}

// ValidateAs copies src into a new T and validates it.
func ValidateAs[T any](v *Validator, src any) (*T, error) {
	out, err := v.Into(src, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return out.(*T), nil
}

func applyDefaults(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			applyDefaults(v.Elem())
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return
		}
		for i := 0; i < v.Len(); i++ {
			applyDefaults(v.Index(i))
		}
	case reflect.Struct:
		if !shared.IsNestedStruct(v.Type()) {
			return
		}
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				applyDefaults(v.Field(i))
			}
		}
		if v.CanAddr() {
			if d, ok := v.Addr().Interface().(Defaulter); ok {
				d.SetDefaults()
			}
		}
	}
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	default:
		return "Invalid value"
	}
}
