package persistence

import (
	"github.com/storefront/backend/internal/infrastructure/persistence/loadplan"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
)

// Repositories builds repositories over one store.
//
// A repository keeps its bound schema between calls, so each request takes
// fresh instances from the factory. The instances share the parsed model
// metadata.
type Repositories struct {
	store   *repository.Store
	options []repository.Option
}

// NewRepositories creates a factory. opts apply to every repository built,
// after the repository's own defaults.
func NewRepositories(store *repository.Store, opts ...repository.Option) *Repositories {
	reflector := loadplan.NewGormReflector(store.Unscoped().NamingStrategy)
	return &Repositories{
		store:   store,
		options: append([]repository.Option{repository.WithReflector(reflector)}, opts...),
	}
}

// Store returns the shared connection provider.
func (f *Repositories) Store() *repository.Store {
	return f.store
}

func (f *Repositories) opts(extra []repository.Option) []repository.Option {
	out := make([]repository.Option, 0, len(f.options)+len(extra))
	out = append(out, f.options...)
	return append(out, extra...)
}

// Categories returns a new category repository.
func (f *Repositories) Categories(opts ...repository.Option) (*CategoryRepository, error) {
	return NewCategoryRepository(f.store, f.opts(opts)...)
}

// Products returns a new product repository.
func (f *Repositories) Products(opts ...repository.Option) (*ProductRepository, error) {
	return NewProductRepository(f.store, f.opts(opts)...)
}

// Orders returns a new order repository.
func (f *Repositories) Orders(opts ...repository.Option) (*OrderRepository, error) {
	return NewOrderRepository(f.store, f.opts(opts)...)
}

// OrderItems returns a new order item repository.
func (f *Repositories) OrderItems(opts ...repository.Option) (*OrderItemRepository, error) {
	return NewOrderItemRepository(f.store, f.opts(opts)...)
}

// OrderStatuses returns a new order status repository.
func (f *Repositories) OrderStatuses(opts ...repository.Option) (*OrderStatusRepository, error) {
	return NewOrderStatusRepository(f.store, f.opts(opts)...)
}
