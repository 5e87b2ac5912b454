package domain

import (
	"time"

	"gorm.io/gorm"
)

type ClientType struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Client struct {
	ID               string      `json:"id" gorm:"primaryKey"`
	Name             string      `json:"name"`
	PrimaryContact   string      `json:"primaryContact"`
	SecondaryContact *string     `json:"secondaryContact"`
	Address          *string     `json:"address,omitempty"`
	ClientTypeID     *string     `json:"clientTypeId"`
	ClientType       *ClientType `json:"clientType" gorm:"foreignKey:ClientTypeID"`
	IsActive         bool        `json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
