package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
)

// ValidateCoupon loads a coupon by code and checks that it is
// redeemable against the given subtotal: active, inside its validity
// window, under its usage cap and above its minimum order amount.
// Any violation yields ErrInvalidCoupon with the reason attached.
func ValidateCoupon(ctx context.Context, db *gorm.DB, code string, subtotal decimal.Decimal) (*domain.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrInvalidCoupon)
	}

	var coupon domain.Coupon
	err := db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: unknown code", ErrInvalidCoupon)
	case err != nil:
		return nil, storeErr("query coupon", err)
	}

	now := time.Now()
	switch {
	case !coupon.Active:
		return nil, fmt.Errorf("%w: inactive", ErrInvalidCoupon)
	case coupon.StartsAt.After(now):
		return nil, fmt.Errorf("%w: not yet valid", ErrInvalidCoupon)
	case coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now):
		return nil, fmt.Errorf("%w: expired", ErrInvalidCoupon)
	case coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses:
		return nil, fmt.Errorf("%w: usage limit reached", ErrInvalidCoupon)
	case coupon.MinOrderAmount.Sign() > 0 && subtotal.LessThan(coupon.MinOrderAmount):
		return nil, fmt.Errorf("%w: order below minimum amount", ErrInvalidCoupon)
	}
	return &coupon, nil
}

// DiscountedSubtotal applies a coupon to a subtotal. This is the one
// discount function in the system; order creation and payment-session
// construction both price through it so the two can never disagree.
// Percentage coupons scale the subtotal, fixed coupons subtract their
// value floored at zero. Shipping is never discounted; whether fixed
// coupons should instead reach into shipping is an open product
// decision, change it here if that ever lands.
func DiscountedSubtotal(subtotal decimal.Decimal, coupon *domain.Coupon) decimal.Decimal {
	if coupon == nil {
		return subtotal
	}
	switch coupon.Type {
	case domain.CouponTypePercentage:
		factor := decimal.NewFromInt(1).Sub(coupon.Value.Div(decimal.NewFromInt(100)))
		return subtotal.Mul(factor).Round(2)
	case domain.CouponTypeFixed:
		discounted := subtotal.Sub(coupon.Value)
		if discounted.Sign() < 0 {
			return decimal.Zero
		}
		return discounted.Round(2)
	default:
		return subtotal
	}
}
