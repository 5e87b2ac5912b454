package domain

import (
	"time"

	"gorm.io/gorm"
)

type Engineer struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	MobileNumber string `json:"mobileNumber"`
	IsActive     bool   `json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
