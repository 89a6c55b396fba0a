package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products in the storefront
type Category struct {
	ID        uuid.UUID `validate:"required"`
	Name      string    `validate:"required,max=255"`
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is a sellable catalog item
type Product struct {
	ID          uuid.UUID `validate:"required"`
	Name        string    `validate:"required,max=255"`
	Description string
	IsActive    bool
	CategoryID  *uuid.UUID
	Category    *Category
	// Image is the object key of the product picture
	Image       string `validate:"max=512"`
	Price       decimal.Decimal
	UpdatedByID *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasImage reports whether a picture is attached.
func (p *Product) HasImage() bool {
	return p.Image != ""
}
