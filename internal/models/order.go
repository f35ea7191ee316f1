package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the single-letter lifecycle code stored on orders.
type OrderStatus string

const (
	StatusReceived  OrderStatus = "R"
	StatusAccepted  OrderStatus = "A"
	StatusDeclined  OrderStatus = "D"
	StatusPaid      OrderStatus = "P"
	StatusOnProcess OrderStatus = "O"
	StatusCompleted OrderStatus = "C"
	StatusCancelled OrderStatus = "X"
)

var statusLabels = map[OrderStatus]string{
	StatusReceived:  "Received",
	StatusAccepted:  "Accepted",
	StatusDeclined:  "Declined",
	StatusPaid:      "Paid",
	StatusOnProcess: "On process",
	StatusCompleted: "Completed",
	StatusCancelled: "Cancelled",
}

// Valid reports whether s is a known status code.
func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable status name.
func (s OrderStatus) Label() string { return statusLabels[s] }

// Order is placed in one store by either a registered customer or a guest e-mail.
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	StoreID       uint           `gorm:"index;not null" json:"store"`
	CustomerID    *uint          `gorm:"index" json:"customer"`
	CustomerEmail string         `gorm:"size:254;not null;default:''" json:"customer_email,omitempty"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	Status        OrderStatus    `gorm:"size:1;not null;default:R" json:"status"`
	Paid          bool           `gorm:"not null;default:false" json:"paid"`
	Items         []OrderItem    `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// IsGuest reports whether the order was placed without an account.
func (o *Order) IsGuest() bool { return o.CustomerID == nil }

// Total sums price*quantity over the loaded items and their products.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		if it.Product == nil {
			continue
		}
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// OrderItem is hard-deleted; it has no soft delete column.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OrderID     uint      `gorm:"index;not null" json:"order"`
	ProductID   uint      `gorm:"index;not null" json:"product"`
	Quantity    uint      `gorm:"not null" json:"quantity"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Product     *Product  `gorm:"foreignKey:ProductID" json:"-"`
}
