package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// StatusInfoDTO is the public view of an order status
type StatusInfoDTO struct {
	ID          uuid.UUID `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	IsCompleted bool      `json:"is_completed"`
}

// ItemInfoDTO is the public view of an order line
type ItemInfoDTO struct {
	ID      uuid.UUID               `json:"id" validate:"required"`
	Product *catalog.ProductInfoDTO `json:"product"`
	Price   decimal.Decimal         `json:"price"`
	Count   int                     `json:"count"`
}

// InfoDTO is the public view of an order
type InfoDTO struct {
	ID              uuid.UUID       `json:"id" validate:"required"`
	CreatedAt       time.Time       `json:"created_at"`
	Status          *StatusInfoDTO  `json:"status"`
	Items           []ItemInfoDTO   `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Hash            string          `json:"hash"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryTime    string          `json:"delivery_time"`
	AdditionalInfo  string          `json:"additional_info"`
}

// ItemCreateDTO is a requested order line
type ItemCreateDTO struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Count     int       `json:"count" validate:"gt=0"`
}

// CreateDTO is the payload for placing an order
type CreateDTO struct {
	Items           []ItemCreateDTO `json:"items" validate:"dive"`
	DeliveryAddress string          `json:"delivery_address" validate:"required,max=255"`
	DeliveryTime    string          `json:"delivery_time" validate:"required,max=255"`
	AdditionalInfo  string          `json:"additional_info" validate:"max=255"`
}

// FilterDTO narrows order listings
type FilterDTO struct {
	Hashes []string `json:"hash__in,omitempty" filter:"hash__in,omitempty"`
}

// CreateResultDTO is returned after an order is placed
type CreateResultDTO struct {
	Hash string `json:"hash" validate:"required"`
}
