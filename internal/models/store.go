package models

import (
	"time"

	"gorm.io/gorm"
)

// Store belongs to exactly one seller and groups products and orders.
type Store struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"size:50;not null" json:"name"`
	Address     string         `gorm:"size:50" json:"address"`
	PhoneNumber string         `gorm:"size:10" json:"phone_number"`
	Email       string         `gorm:"size:50;not null" json:"email"`
	OwnerID     uint           `gorm:"index;not null" json:"owner"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"-"`
}
