// Package shopapi exposes the customer-facing REST surface: catalog
// browsing, cart management, checkout and the payment webhook.
package shopapi

import (
	"github.com/pyropuff/pyroshop/internal/shop"
	"github.com/pyropuff/pyroshop/internal/webserver"
)

// Handler wires the shop services into Echo routes.
type Handler struct {
	pricing  *shop.PricingService
	carts    *shop.CartService
	orders   *shop.OrderService
	payments *shop.PaymentService
}

func NewHandler(pricing *shop.PricingService, carts *shop.CartService,
	orders *shop.OrderService, payments *shop.PaymentService) *Handler {
	return &Handler{pricing: pricing, carts: carts, orders: orders, payments: payments}
}

func (h *Handler) Register(ws *webserver.WebServer) {
	ws.PubGET("/shop/products", h.listProducts)
	ws.PubGET("/shop/products/:slug", h.getProduct)
	ws.PubGET("/shop/categories", h.listCategories)

	ws.PubGET("/shop/cart", h.getCart)
	ws.PubPOST("/shop/cart/items", h.addCartItem)
	ws.PubPUT("/shop/cart/items/:id", h.updateCartItem)
	ws.PubDELETE("/shop/cart/items/:id", h.removeCartItem)

	ws.PubGET("/shop/coupons/:code", h.previewCoupon)
	ws.PubPOST("/shop/orders", h.checkout)
	ws.PubGET("/shop/orders", h.listOrders)
	ws.PubGET("/shop/orders/:id", h.getOrder)

	ws.PubPOST("/checkout", h.createCheckoutSession)
	ws.PubPOST("/checkout/webhook", h.handleWebhook)

	ws.PubPOST("/auth/create-profile", h.createProfile)
}
