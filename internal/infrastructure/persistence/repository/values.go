package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/filter"
)

// matchField matches map keys to struct fields ignoring case and
// underscores, so "category_id" fills CategoryID.
func matchField(key, field string) bool {
	return strings.EqualFold(strings.ReplaceAll(key, "_", ""), field)
}

var (
	uuidType    = reflect.TypeFor[uuid.UUID]()
	decimalType = reflect.TypeFor[decimal.Decimal]()
)

// parseText decodes strings into UUID fields, and strings or numbers into
// decimal fields.
func parseText(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case uuidType:
		if s, ok := data.(string); ok {
			return uuid.Parse(s)
		}
	case decimalType:
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(v)
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case float64:
			return decimal.NewFromFloat(v), nil
		}
	}
	return data, nil
}

// newModel builds an M from values keyed by field or column name. Keys that
// name no field are ignored.
func (r *Repository[M]) newModel(values map[string]any) (*M, error) {
	m := new(M)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     m,
		Squash:     true,
		MatchName:  matchField,
		DecodeHook: parseText,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(values); err != nil {
		return nil, fmt.Errorf("%s: decode values: %w", r.cfg.component, err)
	}
	return m, nil
}

// columns keeps the values that map to writable columns of M, keyed by
// column name. Primary keys and automatic timestamps are dropped.
func (r *Repository[M]) columns(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		f := r.schema.LookUpField(k)
		if f == nil || f.DBName == "" || f.PrimaryKey || f.AutoCreateTime > 0 || f.AutoUpdateTime > 0 {
			continue
		}
		out[f.DBName] = v
	}
	return out
}

// stamp records the acting principal in values. created also sets the
// created-by column.
func (r *Repository[M]) stamp(ctx context.Context, values map[string]any, created bool) {
	if r.cfg.principal == nil {
		return
	}
	id, ok := r.cfg.principal(ctx)
	if !ok || id == uuid.Nil {
		return
	}
	if created && r.schema.LookUpField(createdByField) != nil {
		values[createdByField] = id
	}
	if r.schema.LookUpField(updatedByField) != nil {
		values[updatedByField] = id
	}
}

// popID removes and returns the primary key held in values.
func popID(values map[string]any) (uuid.UUID, error) {
	for _, key := range []string{"ID", "id", "Id"} {
		raw, ok := values[key]
		if !ok {
			continue
		}
		delete(values, key)
		return toUUID(raw)
	}
	return uuid.Nil, shared.NewValidationError("This field is required", "id")
}

func toUUID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case *uuid.UUID:
		if v != nil {
			return *v, nil
		}
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, shared.NewValidationError("Invalid value", "id")
		}
		return id, nil
	}
	return uuid.Nil, shared.NewValidationError("Invalid value", "id")
}

// exactValues extracts the plain equality lookups of q, which seed a row
// created when q matches nothing.
func exactValues(q shared.Query) (map[string]any, error) {
	filters, err := filter.FromQuery(q)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(filters))
	for k, v := range filters {
		if strings.HasPrefix(k, "~") || strings.Contains(k, "__") {
			continue
		}
		switch v.(type) {
		case map[string]any, shared.Filters, shared.Reference:
			continue
		}
		out[k] = v
	}
	return out, nil
}

func merge(dst map[string]any, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
