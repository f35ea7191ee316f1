package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Payment is the audit trail of a checkout session with the card provider.
type Payment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	OrderID     uint            `gorm:"index;not null" json:"order"`
	StoreID     uint            `gorm:"index" json:"store"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ProviderRef string          `gorm:"uniqueIndex;size:255;not null" json:"provider_ref"`
	Status      string          `gorm:"size:20;not null;default:pending" json:"status"`
}
