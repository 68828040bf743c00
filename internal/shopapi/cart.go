package shopapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pyropuff/pyroshop/internal/shop"
)

type addItemPayload struct {
	ProductID int64 `json:"product_id,string" form:"product_id"`
	Quantity  int   `json:"quantity" form:"quantity"`
}

type updateItemPayload struct {
	Quantity int `json:"quantity" form:"quantity"`
}

func (h *Handler) getCart(c echo.Context) error {
	identity := callerIdentity(c)
	if !identity.Valid() {
		return fail(c, http.StatusBadRequest, "NO_IDENTITY", "User id or guest token required", nil)
	}

	cart, err := h.carts.GetOrCreateActiveCart(c.Request().Context(), identity)
	if err != nil {
		return cartError(c, err)
	}
	items, err := h.carts.ListItems(c.Request().Context(), cart)
	if err != nil {
		return cartError(c, err)
	}
	return ok(c, map[string]interface{}{
		"cart":     cart,
		"items":    items,
		"subtotal": shop.CartTotal(items),
	})
}

func (h *Handler) addCartItem(c echo.Context) error {
	identity := callerIdentity(c)
	if !identity.Valid() {
		return fail(c, http.StatusBadRequest, "NO_IDENTITY", "User id or guest token required", nil)
	}

	var payload addItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item", err.Error())
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	cart, err := h.carts.AddItem(c.Request().Context(), identity, payload.ProductID, payload.Quantity)
	if err != nil {
		return cartError(c, err)
	}
	items, err := h.carts.ListItems(c.Request().Context(), cart)
	if err != nil {
		return cartError(c, err)
	}
	return ok(c, map[string]interface{}{
		"cart":     cart,
		"items":    items,
		"subtotal": shop.CartTotal(items),
	})
}

func (h *Handler) updateCartItem(c echo.Context) error {
	identity := callerIdentity(c)
	if !identity.Valid() {
		return fail(c, http.StatusBadRequest, "NO_IDENTITY", "User id or guest token required", nil)
	}
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid cart item ID", nil)
	}
	var payload updateItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse quantity", err.Error())
	}
	if err := h.carts.UpdateQuantity(c.Request().Context(), identity, itemID, payload.Quantity); err != nil {
		return cartError(c, err)
	}
	return ok(c, map[string]interface{}{"id": itemID})
}

func (h *Handler) removeCartItem(c echo.Context) error {
	identity := callerIdentity(c)
	if !identity.Valid() {
		return fail(c, http.StatusBadRequest, "NO_IDENTITY", "User id or guest token required", nil)
	}
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid cart item ID", nil)
	}
	if err := h.carts.RemoveItem(c.Request().Context(), identity, itemID); err != nil {
		return cartError(c, err)
	}
	return ok(c, map[string]interface{}{"id": itemID})
}

// cartError maps shop errors to the response envelope.
func cartError(c echo.Context, err error) error {
	var storage *shop.StorageError
	switch {
	case errors.Is(err, shop.ErrInvalidQuantity):
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be a positive integer", nil)
	case errors.Is(err, shop.ErrPriceNotFound):
		return fail(c, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE", "No price is configured for this product", nil)
	case errors.Is(err, shop.ErrProductNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	case errors.Is(err, shop.ErrCartNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Cart not found", nil)
	case errors.As(err, &storage):
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Storage failure", storage.Err.Error())
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected failure", err.Error())
	}
}
