package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// Status is an order lifecycle state
type Status struct {
	ID          uuid.UUID `validate:"required"`
	Name        string    `validate:"required,max=255"`
	IsDefault   bool
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order is a customer order
type Order struct {
	ID              uuid.UUID
	StatusID        uuid.UUID `validate:"required"`
	Status          *Status
	Items           []Item
	Hash            string `validate:"required,max=32"`
	Total           decimal.Decimal
	DeliveryAddress string `validate:"max=255"`
	DeliveryTime    string `validate:"max=255"`
	AdditionalInfo  string `validate:"max=255"`
	CreatedByID     *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is a single order line
type Item struct {
	ID        uuid.UUID
	OrderID   uuid.UUID `validate:"required"`
	Order     *Order
	ProductID uuid.UUID `validate:"required"`
	Product   *catalog.Product
	Count     int `validate:"gte=0"`
	// Price is the line total, unit price times count
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
