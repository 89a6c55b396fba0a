package shared

// Filters is a nested filter mapping.
//
// Keys are field lookups such as "name", "price__gte" or "category__name".
// A key ending in "__or" groups its children with OR, a key starting with
// "~" negates its subtree, and a nested mapping under any other key groups
// its children with AND.
type Filters map[string]any

// Reference marks a filter value as another field of the same row.
type Reference struct {
	Field string
}

// Ref compares a lookup against another field instead of a literal.
func Ref(field string) Reference {
	return Reference{Field: field}
}

// Query selects rows by a filter mapping and/or a filter DTO.
//
// FilterDTO is a struct whose fields carry `filter:"lookup,omitempty"` tags.
type Query struct {
	Filters   Filters
	FilterDTO any
}

// Where is shorthand for a Query built from a filter mapping.
func Where(filters Filters) Query {
	return Query{Filters: filters}
}

// Page limits and orders a result set.
type Page struct {
	// Limit <= 0 disables the limit
	Limit  int
	Offset int
	// OrderBy holds field names, "-" prefix for descending
	OrderBy  []string
	Distinct bool
}

// ListQuery is a filtered, paged query.
type ListQuery struct {
	Query
	Page
}

// SearchQuery is a ListQuery narrowed by a free text term.
type SearchQuery struct {
	Search string
	Query
	Page
}
