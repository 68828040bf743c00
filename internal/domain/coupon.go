package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// Coupon is a discount code. MinOrderAmount of zero means no minimum,
// MaxUses of zero means unlimited redemptions.
type Coupon struct {
	ID             int64           `json:"id,string" form:"id"`
	Code           string          `gorm:"uniqueIndex;size:64" json:"code" form:"code"`
	Type           string          `gorm:"size:16" json:"type" form:"type"`
	Value          decimal.Decimal `gorm:"type:decimal(10,2)" json:"value" form:"value"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"min_order_amount" form:"min_order_amount"`
	MaxUses        int             `json:"max_uses" form:"max_uses"`
	UsedCount      int             `json:"used_count" form:"used_count"`
	StartsAt       time.Time       `json:"starts_at" form:"starts_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty" form:"expires_at"`
	Active         bool            `gorm:"index" json:"active" form:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}
