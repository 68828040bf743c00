package shop

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

// CartService maintains the single active cart of each identity.
type CartService struct {
	db      *gorm.DB
	pricing *PricingService
}

func NewCartService(db *gorm.DB, pricing *PricingService) *CartService {
	return &CartService{db: db, pricing: pricing}
}

// CartItemDetail joins a cart line with its product and primary image
// for display. Image may be nil when the product has no gallery.
type CartItemDetail struct {
	domain.CartItem
	Product  *domain.Product      `json:"product"`
	Image    *domain.ProductImage `json:"image,omitempty"`
	Subtotal decimal.Decimal      `json:"subtotal"`
}

// GetOrCreateActiveCart returns the identity's active cart, creating
// it on first use. For signed-in users a missing profile row is
// provisioned on the fly; provisioning errors are logged, not fatal,
// so a backend hiccup never blocks shopping.
func (s *CartService) GetOrCreateActiveCart(ctx context.Context, identity Identity) (*domain.Cart, error) {
	if !identity.Valid() {
		return nil, ErrCartNotFound
	}

	if identity.IsUser() {
		s.ensureProfile(ctx, identity.UserID)
	}

	var cart domain.Cart
	err := identity.scope(s.db.WithContext(ctx)).
		Where("status = ?", domain.CartStatusActive).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("query active cart", err)
	}

	cart = domain.Cart{
		ID:         common.UUIDint64(),
		UserID:     identity.UserID,
		GuestToken: identity.GuestToken,
		Status:     domain.CartStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&cart).Error; err != nil {
		// A concurrent first mutation may have won the active-cart
		// unique index; adopt the row it created.
		var existing domain.Cart
		retryErr := identity.scope(s.db.WithContext(ctx)).
			Where("status = ?", domain.CartStatusActive).
			First(&existing).Error
		if retryErr == nil {
			return &existing, nil
		}
		return nil, storeErr("create cart", err)
	}
	return &cart, nil
}

// ActiveCart looks up the identity's active cart without creating
// one, so read paths never leave cart rows behind.
func (s *CartService) ActiveCart(ctx context.Context, identity Identity) (*domain.Cart, error) {
	if !identity.Valid() {
		return nil, ErrCartNotFound
	}
	var cart domain.Cart
	err := identity.scope(s.db.WithContext(ctx)).
		Where("status = ?", domain.CartStatusActive).
		First(&cart).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrCartNotFound
	case err != nil:
		return nil, storeErr("query active cart", err)
	}
	return &cart, nil
}

// AddItem resolves the caller's unit price and upserts the cart line.
// Adding an already-carted product increments its quantity atomically
// at the storage layer and re-captures unit_price from the fresh
// resolution, so a cart line always tracks the current price for the
// caller's role.
func (s *CartService) AddItem(ctx context.Context, identity Identity, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var product domain.Product
	err := s.db.WithContext(ctx).Where("id = ? AND active = ?", productID, true).First(&product).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrProductNotFound
	case err != nil:
		return nil, storeErr("query product", err)
	}

	price, err := s.pricing.ResolvePrice(ctx, productID, s.roleFor(ctx, identity))
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreateActiveCart(ctx, identity)
	if err != nil {
		return nil, err
	}

	item := domain.CartItem{
		ID:        common.UUIDint64(),
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: price.Price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"unit_price": price.Price,
			"updated_at": time.Now(),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, storeErr("upsert cart item", err)
	}
	return cart, nil
}

// UpdateQuantity sets a line's quantity in place, leaving the captured
// unit price untouched. A quantity of zero or less removes the line.
// The write is scoped to carts the identity owns, so a line id alone
// never reaches another shopper's cart.
func (s *CartService) UpdateQuantity(ctx context.Context, identity Identity, itemID int64, quantity int) error {
	if !identity.Valid() {
		return ErrCartNotFound
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, identity, itemID)
	}
	err := s.db.WithContext(ctx).Model(&domain.CartItem{}).
		Where("id = ? AND cart_id IN (?)", itemID, s.ownedCartIDs(identity)).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()}).Error
	return storeErr("update cart item quantity", err)
}

// RemoveItem deletes a cart line the identity owns. Removing an absent
// line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, identity Identity, itemID int64) error {
	if !identity.Valid() {
		return ErrCartNotFound
	}
	err := s.db.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, s.ownedCartIDs(identity)).
		Delete(&domain.CartItem{}).Error
	return storeErr("delete cart item", err)
}

// ownedCartIDs is the cart-id subquery used to fence line mutations to
// the caller's own carts.
func (s *CartService) ownedCartIDs(identity Identity) *gorm.DB {
	return identity.scope(s.db.Model(&domain.Cart{})).Select("id")
}

// ListItems returns the cart lines in insertion order, each joined
// with its product and the image with the lowest gallery position.
func (s *CartService) ListItems(ctx context.Context, cart *domain.Cart) ([]CartItemDetail, error) {
	var items []domain.CartItem
	err := s.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, storeErr("list cart items", err)
	}
	if len(items) == 0 {
		return []CartItemDetail{}, nil
	}

	productIDs := make([]int64, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}

	var products []domain.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, storeErr("list cart products", err)
	}
	productByID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	var images []domain.ProductImage
	if err := s.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id ASC, position ASC").
		Find(&images).Error; err != nil {
		return nil, storeErr("list cart product images", err)
	}
	primaryImage := make(map[int64]*domain.ProductImage, len(productIDs))
	for i := range images {
		if _, seen := primaryImage[images[i].ProductID]; !seen {
			primaryImage[images[i].ProductID] = &images[i]
		}
	}

	details := make([]CartItemDetail, 0, len(items))
	for _, it := range items {
		details = append(details, CartItemDetail{
			CartItem: it,
			Product:  productByID[it.ProductID],
			Image:    primaryImage[it.ProductID],
			Subtotal: it.Subtotal(),
		})
	}
	return details, nil
}

// CartTotal sums the line subtotals of a listed cart.
func CartTotal(items []CartItemDetail) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// roleFor returns the caller's profile role; guests and unknown users
// price at the default tier.
func (s *CartService) roleFor(ctx context.Context, identity Identity) string {
	if !identity.IsUser() {
		return TierRetail
	}
	var profile domain.Customer
	if err := s.db.WithContext(ctx).Where("id = ?", identity.UserID).First(&profile).Error; err != nil {
		return TierRetail
	}
	return profile.Role
}

func (s *CartService) ensureProfile(ctx context.Context, userID string) {
	var profile domain.Customer
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	profile = domain.Customer{
		ID:        userID,
		Role:      TierRetail,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		zap.L().Warn("profile provisioning failed", zap.String("user_id", userID), zap.Error(err))
	}
}
