package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the record metadata shared by every table: numeric id,
// timestamps, soft delete and a globally unique identifier used to match
// records across imports.
type BaseModel struct {
	gorm.Model

	UUID string `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == "" {
		b.UUID = uuid.NewString()
	}
	return nil
}
