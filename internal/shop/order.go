package shop

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

// ShopSettings provides the runtime-tunable checkout parameters.
// The application settings table implements it; tests use a stub.
type ShopSettings interface {
	ShippingFreeThreshold() decimal.Decimal
	ShippingFlatRate() decimal.Decimal
	Currency() string
}

// AddressInput captures an address entered at checkout.
type AddressInput struct {
	Type        string `json:"type"`
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	IsDefault   bool   `json:"is_default"`
}

func (a *AddressInput) complete() bool {
	return a.FullName != "" && a.AddressLine != "" && a.City != "" && a.PostalCode != ""
}

// CreateOrderInput is everything the assembler needs to freeze a cart
// into an order. Address is either a saved address id or an inline
// destination, the inline one wins when both are absent/present
// inconsistently.
type CreateOrderInput struct {
	Identity          Identity
	Items             []domain.CartItem
	ShippingAddressID *int64
	BillingAddressID  *int64
	NewAddress        *AddressInput
	CouponCode        string
	PaymentMethod     string
}

// OrderService converts carts into immutable orders.
type OrderService struct {
	db       *gorm.DB
	settings ShopSettings
}

func NewOrderService(db *gorm.DB, settings ShopSettings) *OrderService {
	return &OrderService{db: db, settings: settings}
}

// ShippingCost is zero once the subtotal strictly exceeds the free
// threshold, otherwise the flat rate.
func (s *OrderService) ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(s.settings.ShippingFreeThreshold()) {
		return decimal.Zero
	}
	return s.settings.ShippingFlatRate()
}

// CreateOrder validates the cart lines, prices the order and persists
// the order, its frozen items, any inline address and the coupon
// redemption in a single transaction. The order starts out
// pending/pending regardless of payment method; the Payment Dispatcher
// moves it from there.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if !in.Identity.Valid() {
		return nil, ErrCartNotFound
	}

	// drop lines that never got a usable captured price
	items := make([]domain.CartItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity >= 1 && it.UnitPrice.Sign() > 0 {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal())
	}
	shipping := s.ShippingCost(subtotal)

	var coupon *domain.Coupon
	if in.CouponCode != "" {
		var err error
		coupon, err = ValidateCoupon(ctx, s.db, in.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
	}
	total := DiscountedSubtotal(subtotal, coupon).Add(shipping)

	order := &domain.Order{
		ID:                common.UUIDint64(),
		UserID:            in.Identity.UserID,
		GuestToken:        in.Identity.GuestToken,
		ShippingAddressID: in.ShippingAddressID,
		BillingAddressID:  in.BillingAddressID,
		Subtotal:          subtotal,
		ShippingCost:      shipping,
		Total:             total,
		Currency:          s.settings.Currency(),
		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		PaymentMethod:     in.PaymentMethod,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.ShippingAddressID == nil && in.NewAddress != nil {
			if !in.NewAddress.complete() {
				return ErrInvalidAddress
			}
			addr := domain.Address{
				ID:          common.UUIDint64(),
				UserID:      in.Identity.UserID,
				Type:        in.NewAddress.Type,
				FullName:    in.NewAddress.FullName,
				AddressLine: in.NewAddress.AddressLine,
				City:        in.NewAddress.City,
				Province:    in.NewAddress.Province,
				PostalCode:  in.NewAddress.PostalCode,
				Country:     in.NewAddress.Country,
				Phone:       in.NewAddress.Phone,
				IsDefault:   in.Identity.IsUser() && in.NewAddress.IsDefault,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
			if addr.Type == "" {
				addr.Type = domain.AddressTypeShipping
			}
			if err := tx.Create(&addr).Error; err != nil {
				return storeErr("create address", err)
			}
			order.ShippingAddressID = &addr.ID
			order.BillingAddressID = &addr.ID
		}

		if err := tx.Create(order).Error; err != nil {
			return storeErr("create order", err)
		}

		orderItems := make([]domain.OrderItem, 0, len(items))
		for _, it := range items {
			name := ""
			var product domain.Product
			if err := tx.Where("id = ?", it.ProductID).First(&product).Error; err == nil {
				name = product.Name
			}
			orderItems = append(orderItems, domain.OrderItem{
				ID:        common.UUIDint64(),
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Name:      name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				CreatedAt: time.Now(),
			})
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return storeErr("create order items", err)
		}

		if coupon != nil {
			err := tx.Model(&domain.Coupon{}).
				Where("id = ?", coupon.ID).
				UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
			if err != nil {
				return storeErr("count coupon redemption", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("payment_method", order.PaymentMethod),
		zap.String("total", order.Total.String()))
	return order, nil
}

// GetOrder loads an order with its frozen items.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, []domain.OrderItem, error) {
	var order domain.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, nil, ErrOrderNotFound
	}
	var items []domain.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, storeErr("list order items", err)
	}
	return &order, items, nil
}

// ListOrders returns the identity's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, identity Identity) ([]domain.Order, error) {
	var orders []domain.Order
	err := identity.scope(s.db.WithContext(ctx)).Order("id DESC").Find(&orders).Error
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return orders, nil
}
