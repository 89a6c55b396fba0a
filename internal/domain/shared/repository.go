package shared

import (
	"context"
	"math"
	"reflect"

	"github.com/google/uuid"
)

// Operation names shared by repositories, interactors and controllers.
const (
	OpCreate               = "create"
	OpBulkCreate           = "bulk_create"
	OpUpdate               = "update"
	OpMultiUpdate          = "multi_update"
	OpBulkUpdate           = "bulk_update"
	OpUpdateOrCreate       = "update_or_create"
	OpDetailOrCreate       = "detail_or_create"
	OpDelete               = "delete"
	OpBulkDelete           = "bulk_delete"
	OpDetail               = "detail"
	OpDetailByPK           = "detail_by_pk"
	OpDetailByExternalCode = "detail_by_external_code"
	OpRetrieve             = "retrieve"
	OpCount                = "count"
	OpSearch               = "search"
	OpSearchCount          = "search_count"
	OpExists               = "exists"
	OpGetByIDs             = "get_by_ids"
	OpGetIDs               = "get_ids"
	OpPatchList            = "patch_list"
)

// DTOBinder binds a result schema to the repository's models.
type DTOBinder interface {
	// WithDTO binds schema to the primary model; a nil schema unbinds it
	WithDTO(schema reflect.Type, opts ...BindOption)
	CleanDTOContext()
}

// Creator creates a single row from an entity struct or a value map.
type Creator interface {
	Create(ctx context.Context, entity any, opts ...CallOption) (any, error)
}

// BulkCreator creates many rows in one statement.
type BulkCreator interface {
	BulkCreate(ctx context.Context, entities []any, opts ...CallOption) (any, error)
}

// Updater updates a single row identified by the "ID" value.
type Updater interface {
	Update(ctx context.Context, entity any, opts ...CallOption) (any, error)
}

// MultiUpdater sets the same values on every row matching a query.
type MultiUpdater interface {
	MultiUpdate(ctx context.Context, q Query, values map[string]any) (int64, error)
}

// BulkUpdater updates several rows, each by its own "ID" value.
type BulkUpdater interface {
	BulkUpdate(ctx context.Context, entities []any, opts ...CallOption) (any, error)
}

// UpdateOrCreator updates the row matching q or creates it.
type UpdateOrCreator interface {
	UpdateOrCreate(ctx context.Context, q Query, values map[string]any, opts ...CallOption) (any, error)
}

// OrCreateResult is the result of DetailOrCreate.
type OrCreateResult struct {
	Object  any
	Created bool
}

// DetailOrCreator fetches the row matching q or creates it from defaults.
type DetailOrCreator interface {
	DetailOrCreate(ctx context.Context, q Query, defaults map[string]any, opts ...CallOption) (*OrCreateResult, error)
}

// Deleter deletes one row by primary key.
type Deleter interface {
	Delete(ctx context.Context, id uuid.UUID, opts ...CallOption) error
}

// BulkDeleter deletes rows by primary key.
type BulkDeleter interface {
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Detailer fetches exactly one row matching a query.
type Detailer interface {
	Detail(ctx context.Context, q Query, opts ...CallOption) (any, error)
}

// PKDetailer fetches one row by primary key.
type PKDetailer interface {
	DetailByPK(ctx context.Context, id uuid.UUID, opts ...CallOption) (any, error)
}

// ExternalCodeDetailer fetches one row by an external system code.
type ExternalCodeDetailer interface {
	DetailByExternalCode(ctx context.Context, code, codeType string, opts ...CallOption) (any, error)
}

// Retriever lists rows.
type Retriever interface {
	Retrieve(ctx context.Context, q ListQuery, opts ...CallOption) (any, error)
	Count(ctx context.Context, q Query) (int64, error)
}

// Searcher lists rows matching a free text term.
type Searcher interface {
	Search(ctx context.Context, q SearchQuery, opts ...CallOption) (any, error)
	SearchCount(ctx context.Context, q SearchQuery) (int64, error)
}

// ExistenceChecker reports whether any row matches.
type ExistenceChecker interface {
	Exists(ctx context.Context, q Query) (bool, error)
}

// IDsGetter resolves primary keys.
type IDsGetter interface {
	GetIDs(ctx context.Context, q Query) ([]uuid.UUID, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID, opts ...CallOption) (any, error)
}

// Transactor runs fn inside a transaction carried by the returned context.
// Nested calls open a savepoint.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	CurrentPage int   `json:"current_page"`
	MaxPages    int   `json:"max_pages"`
	Count       int64 `json:"count"`
	Size        int   `json:"size"`
	Results     []T   `json:"results"`
}

// NewPaginated creates a new paginated result. A non-positive limit means a
// single page holding every row.
func NewPaginated[T any](results []T, count int64, limit, offset int) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	if limit <= 0 {
		return Paginated[T]{
			CurrentPage: 1,
			MaxPages:    1,
			Count:       count,
			Size:        len(results),
			Results:     results,
		}
	}
	return Paginated[T]{
		CurrentPage: int(math.Ceil(float64(offset)/float64(limit))) + 1,
		MaxPages:    int(math.Ceil(float64(count) / float64(limit))),
		Count:       count,
		Size:        limit,
		Results:     results,
	}
}
