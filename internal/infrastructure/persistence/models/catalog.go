package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for product categories.
type CategoryModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null"`
	IsActive bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ProductModel is the persistence model for products.
type ProductModel struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text;not null;default:''"`
	IsActive    bool            `gorm:"not null"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Category    *CategoryModel  `gorm:"constraint:OnDelete:SET NULL"`
	Image       string          `gorm:"type:varchar(512);not null;default:''"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UpdatedByID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}
