package filter

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/storefront/backend/internal/domain/shared"
)

const (
	negationPrefix = "~"
	orSuffix       = "__or"
	lookupSep      = "__"
)

// ErrMissingField is returned for a leaf value with no field to compare.
var ErrMissingField = errors.New("filter: value has no field")

// Compile turns raw into a condition tree. A mapping becomes a group whose
// children are compiled from its keys in sorted order; the group is OR when
// prefix ends in "__or" and AND otherwise. Any other value becomes a leaf on
// prefix. A "~" prefix negates the node.
func Compile(prefix string, raw any) (*Node, error) {
	negated := strings.HasPrefix(prefix, negationPrefix)
	name := strings.TrimPrefix(prefix, negationPrefix)

	if m, ok := asMap(raw); ok {
		group := &Node{Combinator: And, Negated: negated}
		if strings.HasSuffix(name, orSuffix) {
			group.Combinator = Or
		}

		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			child, err := Compile(k, m[k])
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, child)
		}
		return group, nil
	}

	if name == "" {
		return nil, ErrMissingField
	}
	field, op := splitLookup(name)
	return &Node{Field: field, Operator: op, Value: normalize(raw), Negated: negated}, nil
}

// FromQuery merges the filter mapping and the filter DTO of q into a single
// mapping. Mapping keys win over DTO keys.
func FromQuery(q shared.Query) (shared.Filters, error) {
	out := shared.Filters{}
	if q.FilterDTO != nil {
		dto, err := FromStruct(q.FilterDTO)
		if err != nil {
			return nil, err
		}
		for k, v := range dto {
			out[k] = v
		}
	}
	for k, v := range q.Filters {
		out[k] = v
	}
	return out, nil
}

// FromStruct flattens a filter DTO into a mapping using `filter` tags.
// Untagged fields are ignored; "omitempty" drops zero values.
func FromStruct(dto any) (shared.Filters, error) {
	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:              "filter",
		IgnoreUntaggedFields: true,
		Result:               &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(dto); err != nil {
		return nil, fmt.Errorf("filter: decode %T: %w", dto, err)
	}
	return shared.Filters(out), nil
}

func splitLookup(name string) (string, Operator) {
	idx := strings.LastIndex(name, lookupSep)
	if idx <= 0 {
		return name, Exact
	}
	op := Operator(name[idx+len(lookupSep):])
	if _, ok := operators[op]; !ok {
		return name, Exact
	}
	return name[:idx], op
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case shared.Filters:
		return m, true
	}
	return nil, false
}

func normalize(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
