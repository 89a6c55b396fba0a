package persistence

import (
	"context"
	"reflect"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
)

// CategoryRepository implements catalog.CategoryRepository using GORM
type CategoryRepository struct {
	*repository.Repository[models.CategoryModel]
}

var _ catalog.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(store *repository.Store, opts ...repository.Option) (*CategoryRepository, error) {
	opts = append([]repository.Option{
		repository.WithCapabilities(
			shared.OpCreate, shared.OpBulkCreate,
			shared.OpUpdate, shared.OpDelete, shared.OpBulkDelete,
			shared.OpDetail, shared.OpDetailByPK,
			shared.OpRetrieve, shared.OpCount,
		),
		repository.WithDefaultOrder("name", "id"),
	}, opts...)

	repo, err := repository.New[models.CategoryModel](store, reflect.TypeFor[catalog.Category](), opts...)
	if err != nil {
		return nil, err
	}
	return &CategoryRepository{Repository: repo}, nil
}

// Retrieve lists categories, ignoring ordering fields outside CategorySortFields.
func (r *CategoryRepository) Retrieve(ctx context.Context, q shared.ListQuery, opts ...shared.CallOption) (any, error) {
	q.OrderBy = ValidateOrderBy(q.OrderBy, CategorySortFields)
	return r.Repository.Retrieve(ctx, q, opts...)
}
