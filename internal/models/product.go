package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
	Name        string          `gorm:"size:50;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"`
	Available   bool            `gorm:"not null" json:"available"`
	StoreID     uint            `gorm:"index;not null" json:"store"`
	Store       *Store          `gorm:"foreignKey:StoreID" json:"-"`
}

// MinorUnits converts the price into the smallest currency unit (cents).
func (p *Product) MinorUnits() int64 {
	return p.Price.Shift(2).IntPart()
}
