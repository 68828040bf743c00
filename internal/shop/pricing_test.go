package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalRole(t *testing.T) {
	cases := map[string]string{
		"wholesaler": TierWholesale,
		"mayorista":  TierWholesale,
		"cliente":    TierRetail,
		"admin":      TierRetail,
		"":           TierRetail,
		"anything":   TierRetail,
	}
	for role, want := range cases {
		assert.Equal(t, want, CanonicalRole(role), "role %q", role)
	}
}

func TestResolvePriceExactTier(t *testing.T) {
	db := newTestDB(t)
	svc := NewPricingService(db)
	product := seedProduct(t, db, "Sparkler Pack")
	seedPrice(t, db, product.ID, TierRetail, "19.99")
	seedPrice(t, db, product.ID, TierWholesale, "12.50")

	retail, err := svc.ResolvePrice(context.Background(), product.ID, "cliente")
	require.NoError(t, err)
	assert.True(t, dec("19.99").Equal(retail.Price))
	assert.Equal(t, TierRetail, retail.Role)

	wholesale, err := svc.ResolvePrice(context.Background(), product.ID, "wholesaler")
	require.NoError(t, err)
	assert.True(t, dec("12.50").Equal(wholesale.Price))
	assert.Equal(t, TierWholesale, wholesale.Role)
}

func TestResolvePriceFallsBackToRetail(t *testing.T) {
	db := newTestDB(t)
	svc := NewPricingService(db)
	product := seedProduct(t, db, "Fountain")
	seedPrice(t, db, product.ID, TierRetail, "29.00")

	got, err := svc.ResolvePrice(context.Background(), product.ID, TierWholesale)
	require.NoError(t, err)
	assert.True(t, dec("29.00").Equal(got.Price))
	assert.Equal(t, TierRetail, got.Role)
}

func TestResolvePriceNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewPricingService(db)
	product := seedProduct(t, db, "Unpriced Rocket")

	_, err := svc.ResolvePrice(context.Background(), product.ID, TierRetail)
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestResolvePriceIgnoresNonPositiveEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewPricingService(db)
	product := seedProduct(t, db, "Zero Priced")
	seedPrice(t, db, product.ID, TierRetail, "0")

	_, err := svc.ResolvePrice(context.Background(), product.ID, TierRetail)
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestListPrices(t *testing.T) {
	db := newTestDB(t)
	svc := NewPricingService(db)
	product := seedProduct(t, db, "Roman Candle")
	seedPrice(t, db, product.ID, TierWholesale, "8.00")
	seedPrice(t, db, product.ID, TierRetail, "14.00")

	prices, err := svc.ListPrices(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, TierRetail, prices[0].Role)
	assert.Equal(t, TierWholesale, prices[1].Role)
}
