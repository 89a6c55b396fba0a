package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is reported for prices that carry no currency.
const DefaultCurrency = "RUB"

// CategoryInfoDTO is the public view of a category
type CategoryInfoDTO struct {
	ID   uuid.UUID `json:"id" validate:"required"`
	Name string    `json:"name" validate:"required"`
}

// CategoryCreateDTO is the payload for creating a category
type CategoryCreateDTO struct {
	Name     string `json:"name" validate:"required,max=255"`
	IsActive bool   `json:"is_active"`
}

// CategoryUpdateDTO is the payload for changing a category
type CategoryUpdateDTO struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Name     *string   `json:"name,omitempty" validate:"omitempty,max=255"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// ProductInfoDTO is the public view of a product
type ProductInfoDTO struct {
	ID          uuid.UUID        `json:"id" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Category    *CategoryInfoDTO `json:"category,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Currency    string           `json:"currency" validate:"required,len=3"`
	Image       string           `json:"-"`
	ImageURL    string           `json:"image_url"`
}

// SetDefaults fills the currency when the source has none.
func (d *ProductInfoDTO) SetDefaults() {
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
}

// ProductSearchDTO narrows product listings
type ProductSearchDTO struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty" filter:"category_id,omitempty"`
}

// ProductCreateDTO is the payload for creating a product
type ProductCreateDTO struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	IsActive    bool            `json:"is_active"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
}

// ProductUpdateDTO is the payload for changing a product
type ProductUpdateDTO struct {
	ID          uuid.UUID        `json:"id" validate:"required"`
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}
