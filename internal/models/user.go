package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. A user may sell (IsSeller) and buy at the same time.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Email       string         `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username    *string        `gorm:"uniqueIndex;size:50" json:"username"`
	PhoneNumber string         `gorm:"size:10" json:"phone_number"`
	Password    string         `gorm:"size:128;not null" json:"-"` // bcrypt hash, never exposed in JSON
	IsSeller    bool           `gorm:"not null;default:false" json:"is_seller"`
	IsStaff     bool           `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool           `gorm:"not null;default:false" json:"is_superuser"`
}
