package order

import (
	"github.com/storefront/backend/internal/application/controller"
	"github.com/storefront/backend/internal/application/interactor"
	"github.com/storefront/backend/internal/domain/shared"
)

// NewOrderController exposes order placement and the unpaginated lookup of
// orders by hash.
func NewOrderController(it *OrderInteractor, opts ...controller.Option) (*controller.Controller, error) {
	base := []controller.Option{
		controller.WithCallOptions(interactor.Paginated(false)),
	}
	return controller.New(it, []string{shared.OpCreate, shared.OpRetrieve}, append(base, opts...)...)
}
