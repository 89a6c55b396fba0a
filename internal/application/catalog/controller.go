package catalog

import (
	"github.com/storefront/backend/internal/application/controller"
	"github.com/storefront/backend/internal/application/interactor"
	"github.com/storefront/backend/internal/domain/shared"
)

// NewCategoryController exposes the active categories as an unpaginated
// listing.
func NewCategoryController(it *CategoryInteractor, opts ...controller.Option) (*controller.Controller, error) {
	base := []controller.Option{
		controller.WithFilters(shared.Filters{"is_active": true}),
		controller.WithCallOptions(interactor.Paginated(false)),
	}
	return controller.New(it, []string{shared.OpRetrieve}, append(base, opts...)...)
}

// NewProductController exposes search over the active products as an
// unpaginated listing.
func NewProductController(it *ProductInteractor, opts ...controller.Option) (*controller.Controller, error) {
	base := []controller.Option{
		controller.WithFilters(shared.Filters{"is_active": true}),
		controller.WithCallOptions(interactor.Paginated(false)),
	}
	return controller.New(it, []string{shared.OpSearch, shared.OpDetailByPK}, append(base, opts...)...)
}
