package shopapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm/clause"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/shop"
)

type checkoutPayload struct {
	ShippingAddressID *int64             `json:"shipping_address_id,string,omitempty"`
	BillingAddressID  *int64             `json:"billing_address_id,string,omitempty"`
	NewAddress        *shop.AddressInput `json:"new_address,omitempty"`
	CouponCode        string             `json:"coupon_code"`
	PaymentMethod     string             `json:"payment_method" validate:"required,oneof=card transfer"`
}

// checkout freezes the caller's active cart into an order and, for
// card payments, returns the payment redirect URL alongside it.
func (h *Handler) checkout(c echo.Context) error {
	identity := callerIdentity(c)
	if !identity.Valid() {
		return fail(c, http.StatusBadRequest, "NO_IDENTITY", "User id or guest token required", nil)
	}

	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	ctx := c.Request().Context()
	cart, err := h.carts.GetOrCreateActiveCart(ctx, identity)
	if err != nil {
		return cartError(c, err)
	}
	var items []domain.CartItem
	if err := GetDB(c).Where("cart_id = ?", cart.ID).Order("id ASC").Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load cart items", err.Error())
	}

	order, err := h.orders.CreateOrder(ctx, shop.CreateOrderInput{
		Identity:          identity,
		Items:             items,
		ShippingAddressID: payload.ShippingAddressID,
		BillingAddressID:  payload.BillingAddressID,
		NewAddress:        payload.NewAddress,
		CouponCode:        payload.CouponCode,
		PaymentMethod:     payload.PaymentMethod,
	})
	if err != nil {
		return checkoutError(c, err)
	}

	resp := map[string]interface{}{"order": order}
	switch payload.PaymentMethod {
	case domain.PaymentMethodCard:
		url, err := h.payments.CreateCheckoutSession(ctx, order.ID)
		if err != nil {
			return checkoutError(c, err)
		}
		resp["url"] = url
	case domain.PaymentMethodTransfer:
		if err := h.payments.MarkTransferPending(ctx, order.ID); err != nil {
			return checkoutError(c, err)
		}
	}
	return ok(c, resp)
}

func (h *Handler) listOrders(c echo.Context) error {
	identity := callerIdentity(c)
	if !identity.Valid() {
		return fail(c, http.StatusBadRequest, "NO_IDENTITY", "User id or guest token required", nil)
	}
	orders, err := h.orders.ListOrders(c.Request().Context(), identity)
	if err != nil {
		return checkoutError(c, err)
	}
	return ok(c, orders)
}

func (h *Handler) getOrder(c echo.Context) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	order, items, err := h.orders.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return checkoutError(c, err)
	}
	// orders are only visible to their owner
	identity := callerIdentity(c)
	if order.UserID != identity.UserID || order.GuestToken != identity.GuestToken {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	return ok(c, map[string]interface{}{"order": order, "items": items})
}

// previewCoupon validates a code against the caller's current cart
// subtotal so the UI can show the discount before checkout.
func (h *Handler) previewCoupon(c echo.Context) error {
	identity := callerIdentity(c)
	subtotal := shop.CartTotal(nil)
	if identity.Valid() {
		if cart, err := h.carts.ActiveCart(c.Request().Context(), identity); err == nil {
			if items, err := h.carts.ListItems(c.Request().Context(), cart); err == nil {
				subtotal = shop.CartTotal(items)
			}
		}
	}

	coupon, err := shop.ValidateCoupon(c.Request().Context(), GetDB(c), c.Param("code"), subtotal)
	if err != nil {
		return checkoutError(c, err)
	}
	return ok(c, map[string]interface{}{
		"coupon":     coupon,
		"discounted": shop.DiscountedSubtotal(subtotal, coupon),
	})
}

type checkoutSessionPayload struct {
	OrderID int64 `json:"order_id,string" form:"order_id" validate:"required"`
}

// createCheckoutSession builds a payment session for an existing
// order and returns the redirect URL.
func (h *Handler) createCheckoutSession(c echo.Context) error {
	var payload checkoutSessionPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Order ID is required", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	url, err := h.payments.CreateCheckoutSession(c.Request().Context(), payload.OrderID)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"url": url})
}

// handleWebhook consumes the raw provider notification. The signature
// is verified over the unparsed body before anything else happens.
func (h *Handler) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read webhook body", err.Error())
	}
	sig := c.Request().Header.Get("Stripe-Signature")

	if err := h.payments.HandleWebhook(c.Request().Context(), body, sig); err != nil {
		if errors.Is(err, shop.ErrWebhookSignature) {
			return fail(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed", nil)
		}
		// surface the failure so the provider redelivers
		return fail(c, http.StatusInternalServerError, "WEBHOOK_FAILED", "Webhook processing failed", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"received": true})
}

type profilePayload struct {
	UserID    string `json:"userId" form:"userId" validate:"required"`
	Email     string `json:"email" form:"email"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Phone     string `json:"phone" form:"phone"`
}

// createProfile upserts the customer profile row for an identity,
// defaulting new profiles to the base customer role.
func (h *Handler) createProfile(c echo.Context) error {
	var payload profilePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse profile", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	profile := domain.Customer{
		ID:        payload.UserID,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Role:      shop.TierRetail,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := GetDB(c).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "phone", "updated_at",
		}),
	}).Create(&profile).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to upsert profile", err.Error())
	}

	GetDB(c).Where("id = ?", payload.UserID).First(&profile)
	return ok(c, profile)
}

// checkoutError maps order/payment errors to the response envelope.
func checkoutError(c echo.Context, err error) error {
	var storage *shop.StorageError
	switch {
	case errors.Is(err, shop.ErrEmptyOrder):
		return fail(c, http.StatusBadRequest, "EMPTY_ORDER", "Cart has no valid items", nil)
	case errors.Is(err, shop.ErrInvalidAddress):
		return fail(c, http.StatusBadRequest, "INVALID_ADDRESS", "Shipping address is incomplete", nil)
	case errors.Is(err, shop.ErrInvalidCoupon):
		return fail(c, http.StatusBadRequest, "INVALID_COUPON", "Coupon is not applicable", err.Error())
	case errors.Is(err, shop.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	case errors.Is(err, shop.ErrPriceNotFound):
		return fail(c, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE", "No price is configured for a product", nil)
	case errors.Is(err, shop.ErrPaymentProvider):
		return fail(c, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR", "Payment provider call failed", err.Error())
	case errors.As(err, &storage):
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Storage failure", storage.Err.Error())
	default:
		return cartError(c, err)
	}
}
