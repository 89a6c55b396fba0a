package order

import "github.com/storefront/backend/internal/domain/shared"

// Repository defines the data access for orders
type Repository interface {
	shared.DTOBinder
	shared.Creator
	shared.Updater
	shared.Deleter
	shared.Detailer
	shared.PKDetailer
	shared.Retriever
}

// ItemRepository defines the data access for order lines
type ItemRepository interface {
	shared.DTOBinder
	shared.BulkCreator
	shared.Retriever
}

// StatusRepository defines the data access for order statuses
type StatusRepository interface {
	shared.DTOBinder
	shared.Creator
	shared.Detailer
	shared.Retriever
	shared.DetailOrCreator
}
