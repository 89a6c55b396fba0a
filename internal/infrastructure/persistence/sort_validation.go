package persistence

import (
	"strings"
)

// SortFields is a whitelist of public ordering fields.
type SortFields map[string]bool

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields SortFields, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ValidateOrderBy keeps the ordering fields found in allowedFields, each
// with its optional "-" prefix, and drops the rest. An empty result lets
// the repository fall back to its default order.
func ValidateOrderBy(fields []string, allowedFields SortFields) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		name := ValidateSortField(strings.TrimPrefix(field, "-"), allowedFields, "")
		if name == "" {
			continue
		}
		if desc {
			name = "-" + name
		}
		out = append(out, name)
	}
	return out
}

// CommonSortFields contains fields common to every model
var CommonSortFields = SortFields{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// CategorySortFields contains allowed sort fields for categories
var CategorySortFields = SortFields{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// ProductSortFields contains allowed sort fields for products. The last
// three are aliases resolved by the product order mapping.
var ProductSortFields = SortFields{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"price":       true,
	"category_id": true,
	"cheapest":    true,
	"newest":      true,
	"category":    true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = SortFields{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"hash":       true,
	"total":      true,
	"status":     true,
}
