package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"

	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"

	TxnStatusCompleted = "completed"
	TxnStatusFailed    = "failed"
)

// Order is an immutable snapshot created from a non-empty cart. Only
// Status and PaymentStatus change after creation.
type Order struct {
	ID                int64           `json:"id,string" form:"id"`
	UserID            string          `gorm:"index;size:64" json:"user_id" form:"user_id"`
	GuestToken        string          `gorm:"index;size:64" json:"guest_token" form:"guest_token"`
	ShippingAddressID *int64          `json:"shipping_address_id,omitempty" form:"shipping_address_id"`
	BillingAddressID  *int64          `json:"billing_address_id,omitempty" form:"billing_address_id"`
	CouponID          *int64          `gorm:"index" json:"coupon_id,omitempty" form:"coupon_id"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	ShippingCost      decimal.Decimal `gorm:"type:decimal(10,2)" json:"shipping_cost"`
	Total             decimal.Decimal `gorm:"type:decimal(10,2)" json:"total"`
	Currency          string          `gorm:"size:8" json:"currency"`
	Status            string          `gorm:"index;size:16" json:"status" form:"status"`
	PaymentStatus     string          `gorm:"index;size:16" json:"payment_status" form:"payment_status"`
	PaymentMethod     string          `gorm:"size:16" json:"payment_method" form:"payment_method"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a frozen copy of a purchased cart line, never mutated
// after order creation.
type OrderItem struct {
	ID        int64           `json:"id,string" form:"id"`
	OrderID   int64           `gorm:"index" json:"order_id,string" form:"order_id"`
	ProductID int64           `gorm:"index" json:"product_id,string" form:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Transaction is an append-only record of one payment attempt; an
// order may accumulate several.
type Transaction struct {
	ID              int64           `json:"id,string" form:"id"`
	OrderID         int64           `gorm:"index" json:"order_id,string" form:"order_id"`
	PaymentMethod   string          `gorm:"size:16" json:"payment_method"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Currency        string          `gorm:"size:8" json:"currency"`
	Status          string          `gorm:"size:16" json:"status"`
	PaymentIntentID string          `gorm:"index;size:128" json:"payment_intent_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Invoice is the billing document issued for an order.
type Invoice struct {
	ID       int64           `json:"id,string" form:"id"`
	OrderID  int64           `gorm:"index" json:"order_id,string" form:"order_id"`
	Number   string          `gorm:"uniqueIndex;size:64" json:"number" form:"number"`
	IssuedAt time.Time       `json:"issued_at" form:"issued_at"`
	Subtotal decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	Total    decimal.Decimal `gorm:"type:decimal(10,2)" json:"total"`
	Currency string          `gorm:"size:8" json:"currency"`
	Status   string          `gorm:"size:16" json:"status" form:"status"`
	PdfPath  string          `gorm:"size:1024" json:"pdf_path" form:"pdf_path"`
	Remark   string          `json:"remark" form:"remark"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// WebhookEvent records every processed payment-provider event id.
// The unique index is what makes webhook processing idempotent under
// at-least-once delivery.
type WebhookEvent struct {
	ID         int64     `json:"id,string"`
	EventID    string    `gorm:"uniqueIndex;size:128" json:"event_id"`
	EventType  string    `gorm:"size:64" json:"event_type"`
	ReceivedAt time.Time `json:"received_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
