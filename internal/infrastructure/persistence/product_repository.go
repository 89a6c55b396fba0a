package persistence

import (
	"context"
	"reflect"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
)

// productOrderMapping resolves the public ordering aliases of products.
var productOrderMapping = map[string]string{
	"cheapest": "price",
	"newest":   "-created_at",
	"category": "category__name",
}

// ProductRepository implements catalog.ProductRepository using GORM
type ProductRepository struct {
	*repository.Repository[models.ProductModel]
}

var _ catalog.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new ProductRepository. Search matches the
// product name and description.
func NewProductRepository(store *repository.Store, opts ...repository.Option) (*ProductRepository, error) {
	opts = append([]repository.Option{
		repository.WithCapabilities(
			shared.OpCreate, shared.OpBulkCreate,
			shared.OpUpdate, shared.OpDelete, shared.OpBulkDelete,
			shared.OpDetail, shared.OpDetailByPK, shared.OpDetailByExternalCode,
			shared.OpRetrieve, shared.OpCount,
			shared.OpSearch, shared.OpSearchCount,
			shared.OpGetIDs, shared.OpGetByIDs,
		),
		repository.WithSearchFields("name", "description"),
		repository.WithOrderByMapping(productOrderMapping),
	}, opts...)

	repo, err := repository.New[models.ProductModel](store, reflect.TypeFor[catalog.Product](), opts...)
	if err != nil {
		return nil, err
	}
	return &ProductRepository{Repository: repo}, nil
}

// Retrieve lists products, ignoring ordering fields outside ProductSortFields.
func (r *ProductRepository) Retrieve(ctx context.Context, q shared.ListQuery, opts ...shared.CallOption) (any, error) {
	q.OrderBy = ValidateOrderBy(q.OrderBy, ProductSortFields)
	return r.Repository.Retrieve(ctx, q, opts...)
}

// Search lists matching products, ignoring ordering fields outside ProductSortFields.
func (r *ProductRepository) Search(ctx context.Context, q shared.SearchQuery, opts ...shared.CallOption) (any, error) {
	q.OrderBy = ValidateOrderBy(q.OrderBy, ProductSortFields)
	return r.Repository.Search(ctx, q, opts...)
}
