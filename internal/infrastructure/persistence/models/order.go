package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatusModel is the persistence model for order statuses.
type OrderStatusModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null"`
	IsDefault   bool   `gorm:"not null"`
	IsCompleted bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderStatusModel) TableName() string {
	return "order_statuses"
}

// OrderModel is the persistence model for orders.
type OrderModel struct {
	BaseModel
	StatusID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status          *OrderStatusModel `gorm:"constraint:OnDelete:CASCADE"`
	Items           []OrderItemModel  `gorm:"foreignKey:OrderID"`
	Hash            string            `gorm:"type:varchar(32);not null;index"`
	Total           decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	DeliveryAddress string            `gorm:"type:varchar(255);not null;default:''"`
	DeliveryTime    string            `gorm:"type:varchar(255);not null;default:''"`
	AdditionalInfo  string            `gorm:"type:varchar(255);not null;default:''"`
	CreatedByID     *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for order lines.
type OrderItemModel struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Order     *OrderModel     `gorm:"constraint:OnDelete:CASCADE"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Product   *ProductModel   `gorm:"constraint:OnDelete:CASCADE"`
	Count     int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}
