package domain

import (
	"time"

	"gorm.io/gorm"
)

type Material struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"uniqueIndex"`
	Unit         string `json:"unit"`
	ReorderLevel *int   `json:"reorderLevel"`
	IsActive     bool   `json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
