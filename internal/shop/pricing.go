package shop

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
)

// Canonical pricing tiers used as keys into the price list. Customer
// facing role names normalize to these via CanonicalRole.
const (
	TierRetail    = "cliente"
	TierWholesale = "mayorista"
)

// CanonicalRole maps a customer-facing role name to its pricing tier.
// This is the only place the mapping lives; every component resolves
// roles through it. Admins and unknown roles price at the retail tier.
func CanonicalRole(role string) string {
	switch role {
	case "wholesaler", TierWholesale:
		return TierWholesale
	default:
		return TierRetail
	}
}

// ResolvedPrice is the unit price to charge a role for a product.
type ResolvedPrice struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Role     string          `json:"role"`
}

// PricingService resolves role-based unit prices from the price list.
type PricingService struct {
	db *gorm.DB
}

func NewPricingService(db *gorm.DB) *PricingService {
	return &PricingService{db: db}
}

// ResolvePrice looks up the price list entry for (product, canonical
// role), falling back to the retail tier when the role has no entry.
// Returns ErrPriceNotFound when the product has no usable entry at all.
func (s *PricingService) ResolvePrice(ctx context.Context, productID int64, role string) (ResolvedPrice, error) {
	tier := CanonicalRole(role)

	entry, err := s.lookup(ctx, productID, tier)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrPriceNotFound) {
		return ResolvedPrice{}, err
	}

	if tier != TierRetail {
		return s.lookup(ctx, productID, TierRetail)
	}
	return ResolvedPrice{}, ErrPriceNotFound
}

// ListPrices returns all price list entries of a product.
func (s *PricingService) ListPrices(ctx context.Context, productID int64) ([]domain.ProductPrice, error) {
	var prices []domain.ProductPrice
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("role ASC").
		Find(&prices).Error
	if err != nil {
		return nil, storeErr("list product prices", err)
	}
	return prices, nil
}

func (s *PricingService) lookup(ctx context.Context, productID int64, tier string) (ResolvedPrice, error) {
	var entry domain.ProductPrice
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND role = ?", productID, tier).
		First(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ResolvedPrice{}, ErrPriceNotFound
	case err != nil:
		return ResolvedPrice{}, storeErr("query product price", err)
	}
	if entry.Price.Sign() <= 0 {
		// a non-positive entry is as unusable as a missing one
		return ResolvedPrice{}, ErrPriceNotFound
	}
	return ResolvedPrice{Price: entry.Price, Currency: entry.Currency, Role: entry.Role}, nil
}
