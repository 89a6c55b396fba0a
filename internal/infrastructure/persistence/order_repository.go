package persistence

import (
	"context"
	"reflect"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
)

// OrderRepository implements order.Repository using GORM
type OrderRepository struct {
	*repository.Repository[models.OrderModel]
}

var _ order.Repository = (*OrderRepository)(nil)

// NewOrderRepository creates a new OrderRepository. Orders list newest first.
func NewOrderRepository(store *repository.Store, opts ...repository.Option) (*OrderRepository, error) {
	opts = append([]repository.Option{
		repository.WithCapabilities(
			shared.OpCreate, shared.OpUpdate, shared.OpDelete,
			shared.OpDetail, shared.OpDetailByPK,
			shared.OpRetrieve, shared.OpCount,
		),
		repository.WithDefaultOrder("-created_at", "id"),
		repository.WithOrderByMapping(map[string]string{"status": "status__name"}),
	}, opts...)

	repo, err := repository.New[models.OrderModel](store, reflect.TypeFor[order.Order](), opts...)
	if err != nil {
		return nil, err
	}
	return &OrderRepository{Repository: repo}, nil
}

// Retrieve lists orders, ignoring ordering fields outside OrderSortFields.
func (r *OrderRepository) Retrieve(ctx context.Context, q shared.ListQuery, opts ...shared.CallOption) (any, error) {
	q.OrderBy = ValidateOrderBy(q.OrderBy, OrderSortFields)
	return r.Repository.Retrieve(ctx, q, opts...)
}

// OrderItemRepository implements order.ItemRepository using GORM
type OrderItemRepository struct {
	*repository.Repository[models.OrderItemModel]
}

var _ order.ItemRepository = (*OrderItemRepository)(nil)

// NewOrderItemRepository creates a new OrderItemRepository
func NewOrderItemRepository(store *repository.Store, opts ...repository.Option) (*OrderItemRepository, error) {
	opts = append([]repository.Option{
		repository.WithCapabilities(shared.OpBulkCreate, shared.OpRetrieve, shared.OpCount),
	}, opts...)

	repo, err := repository.New[models.OrderItemModel](store, reflect.TypeFor[order.Item](), opts...)
	if err != nil {
		return nil, err
	}
	return &OrderItemRepository{Repository: repo}, nil
}

// OrderStatusRepository implements order.StatusRepository using GORM
type OrderStatusRepository struct {
	*repository.Repository[models.OrderStatusModel]
}

var _ order.StatusRepository = (*OrderStatusRepository)(nil)

// NewOrderStatusRepository creates a new OrderStatusRepository
func NewOrderStatusRepository(store *repository.Store, opts ...repository.Option) (*OrderStatusRepository, error) {
	opts = append([]repository.Option{
		repository.WithCapabilities(
			shared.OpCreate, shared.OpDetail, shared.OpDetailOrCreate,
			shared.OpRetrieve, shared.OpCount,
		),
	}, opts...)

	repo, err := repository.New[models.OrderStatusModel](store, reflect.TypeFor[order.Status](), opts...)
	if err != nil {
		return nil, err
	}
	return &OrderStatusRepository{Repository: repo}, nil
}
