package shop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

func newCartService(t *testing.T) (*CartService, *PricingService) {
	t.Helper()
	db := newTestDB(t)
	pricing := NewPricingService(db)
	return NewCartService(db, pricing), pricing
}

func TestGetOrCreateActiveCart(t *testing.T) {
	svc, _ := newCartService(t)
	identity := GuestIdentity(common.NewGuestToken())

	cart, err := svc.GetOrCreateActiveCart(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusActive, cart.Status)
	assert.Equal(t, identity.GuestToken, cart.GuestToken)

	again, err := svc.GetOrCreateActiveCart(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestGetOrCreateActiveCartRequiresIdentity(t *testing.T) {
	svc, _ := newCartService(t)
	_, err := svc.GetOrCreateActiveCart(context.Background(), Identity{})
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestGetOrCreateActiveCartProvisionsProfile(t *testing.T) {
	svc, _ := newCartService(t)
	identity := UserIdentity(common.UUID())

	_, err := svc.GetOrCreateActiveCart(context.Background(), identity)
	require.NoError(t, err)

	var profile domain.Customer
	require.NoError(t, svc.db.Where("id = ?", identity.UserID).First(&profile).Error)
	assert.Equal(t, TierRetail, profile.Role)
}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Sky Lantern")
	seedPrice(t, svc.db, product.ID, TierRetail, "5.00")
	identity := GuestIdentity(common.NewGuestToken())

	cart, err := svc.AddItem(context.Background(), identity, product.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), identity, product.ID, 3)
	require.NoError(t, err)

	var items []domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", cart.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, dec("5.00").Equal(items[0].UnitPrice))
}

func TestAddItemRecapturesPrice(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Firecracker Belt")
	seedPrice(t, svc.db, product.ID, TierRetail, "5.00")
	identity := GuestIdentity(common.NewGuestToken())

	cart, err := svc.AddItem(context.Background(), identity, product.ID, 1)
	require.NoError(t, err)

	// price changes between the two adds
	require.NoError(t, svc.db.Model(&domain.ProductPrice{}).
		Where("product_id = ? AND role = ?", product.ID, TierRetail).
		Update("price", dec("7.50")).Error)

	_, err = svc.AddItem(context.Background(), identity, product.ID, 1)
	require.NoError(t, err)

	var item domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", cart.ID).First(&item).Error)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, dec("7.50").Equal(item.UnitPrice))
}

func TestAddItemWholesalePricing(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Bulk Rockets")
	seedPrice(t, svc.db, product.ID, TierRetail, "20.00")
	seedPrice(t, svc.db, product.ID, TierWholesale, "11.00")

	userID := common.UUID()
	seedCustomer(t, svc.db, userID, TierWholesale)
	identity := UserIdentity(userID)

	cart, err := svc.AddItem(context.Background(), identity, product.ID, 1)
	require.NoError(t, err)

	var item domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", cart.ID).First(&item).Error)
	assert.True(t, dec("11.00").Equal(item.UnitPrice))
}

func TestAddItemInvalidQuantity(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Smoke Bomb")
	seedPrice(t, svc.db, product.ID, TierRetail, "3.00")
	identity := GuestIdentity(common.NewGuestToken())

	_, err := svc.AddItem(context.Background(), identity, product.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AddItem(context.Background(), identity, product.ID, -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newCartService(t)
	identity := GuestIdentity(common.NewGuestToken())

	_, err := svc.AddItem(context.Background(), identity, 424242, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddItemInactiveProduct(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Retired Item")
	seedPrice(t, svc.db, product.ID, TierRetail, "9.00")
	require.NoError(t, svc.db.Model(product).Update("active", false).Error)
	identity := GuestIdentity(common.NewGuestToken())

	_, err := svc.AddItem(context.Background(), identity, product.ID, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddItemMissingPrice(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "No Price Tag")
	identity := GuestIdentity(common.NewGuestToken())

	_, err := svc.AddItem(context.Background(), identity, product.ID, 1)
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Pinwheel")
	seedPrice(t, svc.db, product.ID, TierRetail, "4.00")
	identity := GuestIdentity(common.NewGuestToken())

	cart, err := svc.AddItem(context.Background(), identity, product.ID, 2)
	require.NoError(t, err)
	var item domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", cart.ID).First(&item).Error)

	require.NoError(t, svc.UpdateQuantity(context.Background(), identity, item.ID, 0))

	var count int64
	svc.db.Model(&domain.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count)
	assert.Zero(t, count)
}

func TestUpdateQuantityKeepsCapturedPrice(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Catherine Wheel")
	seedPrice(t, svc.db, product.ID, TierRetail, "6.00")
	identity := GuestIdentity(common.NewGuestToken())

	cart, err := svc.AddItem(context.Background(), identity, product.ID, 1)
	require.NoError(t, err)
	var item domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", cart.ID).First(&item).Error)

	require.NoError(t, svc.UpdateQuantity(context.Background(), identity, item.ID, 4))

	require.NoError(t, svc.db.Where("id = ?", item.ID).First(&item).Error)
	assert.Equal(t, 4, item.Quantity)
	assert.True(t, dec("6.00").Equal(item.UnitPrice))
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc, _ := newCartService(t)
	identity := GuestIdentity(common.NewGuestToken())
	assert.NoError(t, svc.RemoveItem(context.Background(), identity, 987654))
}

func TestLineMutationScopedToOwner(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Guarded Rocket")
	seedPrice(t, svc.db, product.ID, TierRetail, "3.00")

	owner := GuestIdentity(common.NewGuestToken())
	stranger := GuestIdentity(common.NewGuestToken())

	cart, err := svc.AddItem(context.Background(), owner, product.ID, 2)
	require.NoError(t, err)
	var line domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", cart.ID).First(&line).Error)

	require.NoError(t, svc.UpdateQuantity(context.Background(), stranger, line.ID, 9))
	require.NoError(t, svc.RemoveItem(context.Background(), stranger, line.ID))

	var kept domain.CartItem
	require.NoError(t, svc.db.Where("id = ?", line.ID).First(&kept).Error)
	assert.Equal(t, 2, kept.Quantity)

	require.NoError(t, svc.RemoveItem(context.Background(), owner, line.ID))
	var count int64
	svc.db.Model(&domain.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count)
	assert.Zero(t, count)
}

func TestListItemsAndCartTotal(t *testing.T) {
	svc, _ := newCartService(t)
	first := seedProduct(t, svc.db, "Alpha")
	second := seedProduct(t, svc.db, "Beta")
	seedPrice(t, svc.db, first.ID, TierRetail, "10.00")
	seedPrice(t, svc.db, second.ID, TierRetail, "2.50")
	identity := GuestIdentity(common.NewGuestToken())

	cart, err := svc.AddItem(context.Background(), identity, first.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), identity, second.ID, 4)
	require.NoError(t, err)

	details, err := svc.ListItems(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "Alpha", details[0].Product.Name)
	assert.True(t, dec("20.00").Equal(details[0].Subtotal))
	assert.True(t, dec("10.00").Equal(details[1].Subtotal))

	assert.True(t, dec("30.00").Equal(CartTotal(details)))
}

func TestListItemsEmptyCart(t *testing.T) {
	svc, _ := newCartService(t)
	identity := GuestIdentity(common.NewGuestToken())
	cart, err := svc.GetOrCreateActiveCart(context.Background(), identity)
	require.NoError(t, err)

	details, err := svc.ListItems(context.Background(), cart)
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.True(t, CartTotal(details).IsZero())
}

func TestSingleActiveCartPerIdentity(t *testing.T) {
	svc, _ := newCartService(t)
	identity := GuestIdentity(common.NewGuestToken())

	first, err := svc.GetOrCreateActiveCart(context.Background(), identity)
	require.NoError(t, err)
	second, err := svc.GetOrCreateActiveCart(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	dup := domain.Cart{
		ID:         common.UUIDint64(),
		GuestToken: identity.GuestToken,
		Status:     domain.CartStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	assert.Error(t, svc.db.Create(&dup).Error)

	retired := domain.Cart{
		ID:         common.UUIDint64(),
		GuestToken: identity.GuestToken,
		Status:     domain.CartStatusCompleted,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	assert.NoError(t, svc.db.Create(&retired).Error)
}

func TestGuestAndUserCartsAreIsolated(t *testing.T) {
	svc, _ := newCartService(t)
	product := seedProduct(t, svc.db, "Shared Product")
	seedPrice(t, svc.db, product.ID, TierRetail, "1.00")

	guest := GuestIdentity(common.NewGuestToken())
	user := UserIdentity(common.UUID())

	guestCart, err := svc.AddItem(context.Background(), guest, product.ID, 1)
	require.NoError(t, err)
	userCart, err := svc.AddItem(context.Background(), user, product.ID, 5)
	require.NoError(t, err)
	require.NotEqual(t, guestCart.ID, userCart.ID)

	var guestItem domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", guestCart.ID).First(&guestItem).Error)
	assert.Equal(t, 1, guestItem.Quantity)
	var userItem domain.CartItem
	require.NoError(t, svc.db.Where("cart_id = ?", userCart.ID).First(&userItem).Error)
	assert.Equal(t, 5, userItem.Quantity)
}
