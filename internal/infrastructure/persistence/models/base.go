package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// GetID returns the primary key
func (m BaseModel) GetID() uuid.UUID {
	return m.ID
}

// BeforeCreate assigns a primary key when the caller did not
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// All lists every model, in dependency order, for schema migration in tests
// and development setups.
func All() []any {
	return []any{
		&CategoryModel{},
		&ProductModel{},
		&OrderStatusModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ExternalCodeModel{},
	}
}
