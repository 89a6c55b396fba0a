package catalog

import "github.com/storefront/backend/internal/domain/shared"

// CategoryRepository defines the data access a category interactor needs
type CategoryRepository interface {
	shared.DTOBinder
	shared.Creator
	shared.Updater
	shared.Deleter
	shared.Detailer
	shared.PKDetailer
	shared.Retriever
}

// ProductRepository defines the data access a product interactor needs
type ProductRepository interface {
	shared.DTOBinder
	shared.Creator
	shared.Updater
	shared.Deleter
	shared.Detailer
	shared.PKDetailer
	shared.ExternalCodeDetailer
	shared.Retriever
	shared.Searcher
	shared.IDsGetter
}
