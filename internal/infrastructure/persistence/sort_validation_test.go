package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortField(t *testing.T) {
	allowedFields := SortFields{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}

	tests := []struct {
		name         string
		input        string
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", "created_at", "created_at"},
		{"valid field returns field", "name", "created_at", "name"},
		{"invalid field returns default", "invalid_field", "created_at", "created_at"},
		{"sql injection attempt returns default", "id; DROP TABLE users;--", "created_at", "created_at"},
		{"case sensitive - uppercase invalid", "NAME", "created_at", "created_at"},
		{"whitespace only returns default", "   ", "created_at", "created_at"},
		{"whitespace around valid field returns field", "  name  ", "created_at", "name"},
		{"field with quotes injection returns default", "name'--", "created_at", "created_at"},
		{"empty default with invalid field", "invalid", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, allowedFields, tt.defaultField))
		})
	}
}

func TestValidateOrderBy(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil stays empty", nil, []string{}},
		{"keeps direction prefix", []string{"-price", "name"}, []string{"-price", "name"}},
		{"drops unknown fields", []string{"secret", "-cheapest"}, []string{"-cheapest"}},
		{"drops injection", []string{"price; DROP TABLE products", " newest "}, []string{"newest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateOrderBy(tt.input, ProductSortFields))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]SortFields{
		"CategorySortFields": CategorySortFields,
		"ProductSortFields":  ProductSortFields,
		"OrderSortFields":    OrderSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name+" contains common fields", func(t *testing.T) {
			for field := range CommonSortFields {
				assert.True(t, whitelist[field], "%s should contain '%s'", name, field)
			}
		})
	}
}
