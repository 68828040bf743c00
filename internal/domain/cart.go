package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CartStatusActive    = "active"
	CartStatusCompleted = "completed"
)

// Cart is the single active cart of an identity, either an
// authenticated user (UserID set) or an anonymous shopper (GuestToken
// set). It is created lazily on the first cart mutation and retired
// to "completed" once its order is paid. The partial unique index
// lets one identity hold any number of retired carts but only one
// active one.
type Cart struct {
	ID         int64     `json:"id,string" form:"id"`
	UserID     string    `gorm:"index;size:64;uniqueIndex:uk_active_cart,where:status = 'active'" json:"user_id" form:"user_id"`
	GuestToken string    `gorm:"index;size:64;uniqueIndex:uk_active_cart,where:status = 'active'" json:"guest_token" form:"guest_token"`
	Status     string    `gorm:"index;size:16" json:"status" form:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a cart. UnitPrice is captured when the line
// is written, not recomputed at read time.
type CartItem struct {
	ID        int64           `json:"id,string" form:"id"`
	CartID    int64           `gorm:"uniqueIndex:uk_cart_product" json:"cart_id,string" form:"cart_id"`
	ProductID int64           `gorm:"uniqueIndex:uk_cart_product" json:"product_id,string" form:"product_id"`
	Quantity  int             `json:"quantity" form:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price" form:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal is quantity times the captured unit price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
