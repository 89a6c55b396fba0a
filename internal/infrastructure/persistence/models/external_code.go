package models

import "github.com/google/uuid"

// ExternalCodeModel links a row to its code in an external system.
// ModelType holds the table name of the linked row.
type ExternalCodeModel struct {
	BaseModel
	Code      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_external_code,priority:1"`
	CodeType  string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_external_code,priority:2"`
	ModelType string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_external_code,priority:3"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ExternalCodeModel) TableName() string {
	return "external_codes"
}
