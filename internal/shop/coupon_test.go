package shop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

func seedCoupon(t *testing.T, db *gorm.DB, coupon domain.Coupon) *domain.Coupon {
	t.Helper()
	if coupon.ID == 0 {
		coupon.ID = common.UUIDint64()
	}
	if coupon.StartsAt.IsZero() {
		coupon.StartsAt = time.Now().Add(-time.Hour)
	}
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = time.Now()
	require.NoError(t, db.Create(&coupon).Error)
	return &coupon
}

func TestDiscountedSubtotal(t *testing.T) {
	percentage := &domain.Coupon{Type: domain.CouponTypePercentage, Value: dec("10")}
	fixed := &domain.Coupon{Type: domain.CouponTypeFixed, Value: dec("15")}

	assert.True(t, dec("90.00").Equal(DiscountedSubtotal(dec("100"), percentage)))
	assert.True(t, dec("85.00").Equal(DiscountedSubtotal(dec("100"), fixed)))

	// fixed discount never pushes the subtotal below zero
	assert.True(t, DiscountedSubtotal(dec("10"), fixed).IsZero())

	// nil coupon and unknown type pass through
	assert.True(t, dec("42").Equal(DiscountedSubtotal(dec("42"), nil)))
	assert.True(t, dec("42").Equal(DiscountedSubtotal(dec("42"), &domain.Coupon{Type: "mystery", Value: dec("5")})))
}

func TestDiscountedSubtotalRounding(t *testing.T) {
	percentage := &domain.Coupon{Type: domain.CouponTypePercentage, Value: dec("33")}
	got := DiscountedSubtotal(dec("9.99"), percentage)
	assert.True(t, dec("6.69").Equal(got), "got %s", got)
}

func TestValidateCouponHappyPath(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, domain.Coupon{Code: "WELCOME10", Type: domain.CouponTypePercentage, Value: dec("10"), Active: true})

	coupon, err := ValidateCoupon(context.Background(), db, "welcome10", dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", coupon.Code)
}

func TestValidateCouponRejections(t *testing.T) {
	db := newTestDB(t)
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	seedCoupon(t, db, domain.Coupon{Code: "INACTIVE", Type: domain.CouponTypeFixed, Value: dec("5"), Active: false})
	seedCoupon(t, db, domain.Coupon{Code: "NOTYET", Type: domain.CouponTypeFixed, Value: dec("5"), Active: true, StartsAt: future})
	seedCoupon(t, db, domain.Coupon{Code: "EXPIRED", Type: domain.CouponTypeFixed, Value: dec("5"), Active: true, ExpiresAt: &past})
	seedCoupon(t, db, domain.Coupon{Code: "USEDUP", Type: domain.CouponTypeFixed, Value: dec("5"), Active: true, MaxUses: 2, UsedCount: 2})
	seedCoupon(t, db, domain.Coupon{Code: "BIGONLY", Type: domain.CouponTypeFixed, Value: dec("5"), Active: true, MinOrderAmount: dec("75")})

	cases := []struct {
		code     string
		subtotal string
	}{
		{"MISSING", "50"},
		{"", "50"},
		{"INACTIVE", "50"},
		{"NOTYET", "50"},
		{"EXPIRED", "50"},
		{"USEDUP", "50"},
		{"BIGONLY", "50"},
	}
	for _, tc := range cases {
		_, err := ValidateCoupon(context.Background(), db, tc.code, dec(tc.subtotal))
		assert.ErrorIs(t, err, ErrInvalidCoupon, "code %q", tc.code)
	}
}

func TestValidateCouponMinAmountBoundary(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, domain.Coupon{Code: "MIN50", Type: domain.CouponTypeFixed, Value: dec("5"), Active: true, MinOrderAmount: dec("50")})

	// exactly at the minimum qualifies
	_, err := ValidateCoupon(context.Background(), db, "MIN50", dec("50"))
	assert.NoError(t, err)

	_, err = ValidateCoupon(context.Background(), db, "MIN50", dec("49.99"))
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestValidateCouponUnlimitedUses(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, domain.Coupon{Code: "FOREVER", Type: domain.CouponTypePercentage, Value: dec("5"), Active: true, MaxUses: 0, UsedCount: 9000})

	_, err := ValidateCoupon(context.Background(), db, "FOREVER", dec("10"))
	assert.NoError(t, err)
}
