package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/shop"
	"github.com/pyropuff/pyroshop/internal/webserver"
)

// orderTransitions is the only authority on which fulfilment moves are
// legal. Paid state is never changed here, only by payment handling.
var orderTransitions = map[string][]string{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusCompleted},
}

type orderStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped completed cancelled"`
}

type orderDetail struct {
	domain.Order
	Items        []domain.OrderItem   `json:"items"`
	Transactions []domain.Transaction `json:"transactions"`
}

type orderCsvRow struct {
	ID            int64  `csv:"id"`
	UserID        string `csv:"user_id"`
	GuestToken    string `csv:"guest_token"`
	Subtotal      string `csv:"subtotal"`
	ShippingCost  string `csv:"shipping_cost"`
	Total         string `csv:"total"`
	Currency      string `csv:"currency"`
	Status        string `csv:"status"`
	PaymentStatus string `csv:"payment_status"`
	PaymentMethod string `csv:"payment_method"`
	CreatedAt     string `csv:"created_at"`
}

func registerOrderRoutes(ws *webserver.WebServer) {
	ws.AdmGET("/crm/orders", listAdminOrders)
	ws.AdmGET("/crm/orders/export", exportOrders)
	ws.AdmGET("/crm/orders/:id", getAdminOrder)
	ws.AdmPUT("/crm/orders/:id/status", updateOrderStatus)
	ws.AdmPOST("/crm/orders/:id/confirm-payment", confirmTransferPayment)
}

func orderListQuery(c echo.Context) *gorm.DB {
	db := GetDB(c).Model(&domain.Order{})
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	if ps := strings.TrimSpace(c.QueryParam("payment_status")); ps != "" {
		db = db.Where("payment_status = ?", ps)
	}
	if userID := strings.TrimSpace(c.QueryParam("user_id")); userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	return db
}

func listAdminOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := orderListQuery(c)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.Order
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getAdminOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	detail := orderDetail{Order: order}
	if err := GetDB(c).Where("order_id = ?", id).Order("id").Find(&detail.Items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order items", err.Error())
	}
	if err := GetDB(c).Where("order_id = ?", id).Order("created_at").Find(&detail.Transactions).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query transactions", err.Error())
	}
	return ok(c, detail)
}

func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	var order domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if !transitionAllowed(order.Status, payload.Status) {
		return fail(c, http.StatusConflict, "INVALID_TRANSITION",
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, payload.Status), nil)
	}

	err = GetDB(c).Model(&domain.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     payload.Status,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
	}
	order.Status = payload.Status
	return ok(c, order)
}

func transitionAllowed(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// confirmTransferPayment settles a bank-transfer order once the
// operator has seen the funds arrive. It goes through the same payment
// path as the card webhook so the order, transaction and cart end up
// in the same state either way.
func confirmTransferPayment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if order.PaymentMethod != domain.PaymentMethodTransfer {
		return fail(c, http.StatusConflict, "INVALID_PAYMENT_METHOD", "Order is not a bank transfer", nil)
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return fail(c, http.StatusConflict, "ALREADY_PAID", "Order is already paid", nil)
	}

	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		return shop.MarkOrderPaid(tx, order.ID, domain.PaymentMethodTransfer, "", order.Total, order.Currency)
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to confirm payment", err.Error())
	}
	if bus := GetApp(c).Bus(); bus != nil {
		bus.Publish(shop.TopicOrderPaid, order.ID)
	}

	if err := GetDB(c).Where("id = ?", id).First(&order).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reload order", err.Error())
	}
	return ok(c, order)
}

func exportOrders(c echo.Context) error {
	var rows []domain.Order
	if err := orderListQuery(c).Order("created_at DESC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	out := make([]orderCsvRow, 0, len(rows))
	for _, o := range rows {
		out = append(out, orderCsvRow{
			ID:            o.ID,
			UserID:        o.UserID,
			GuestToken:    o.GuestToken,
			Subtotal:      o.Subtotal.StringFixed(2),
			ShippingCost:  o.ShippingCost.StringFixed(2),
			Total:         o.Total.StringFixed(2),
			Currency:      o.Currency,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			PaymentMethod: o.PaymentMethod,
			CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		})
	}
	csvData, err := gocsv.MarshalString(&out)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to render CSV", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(csvData))
}
