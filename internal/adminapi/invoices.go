package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/webserver"
	"github.com/pyropuff/pyroshop/pkg/common"
)

const (
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

type invoicePayload struct {
	Status  string `json:"status" validate:"omitempty,oneof=issued paid cancelled"`
	PdfPath string `json:"pdf_path"`
	Remark  string `json:"remark"`
}

type generateInvoicePayload struct {
	OrderID int64 `json:"order_id,string" validate:"required"`
}

func registerInvoiceRoutes(ws *webserver.WebServer) {
	ws.AdmGET("/crm/invoices", listInvoices)
	ws.AdmGET("/crm/invoices/:id", getInvoice)
	ws.AdmPOST("/crm/invoices", generateInvoice)
	ws.AdmPUT("/crm/invoices/:id", updateInvoice)
	ws.AdmDELETE("/crm/invoices/:id", deleteInvoice)
}

func listInvoices(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.Invoice{})

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	var rows []domain.Invoice
	if err := db.Order("issued_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getInvoice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	var invoice domain.Invoice
	if err := GetDB(c).Where("id = ?", id).First(&invoice).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
	}
	return ok(c, invoice)
}

// generateInvoice issues the billing document for a paid order. One
// invoice per order; calling it again returns the existing one.
func generateInvoice(c echo.Context) error {
	var payload generateInvoicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	var order domain.Order
	if err := GetDB(c).Where("id = ?", payload.OrderID).First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		return fail(c, http.StatusConflict, "ORDER_NOT_PAID", "Cannot invoice an unpaid order", nil)
	}

	var existing domain.Invoice
	if err := GetDB(c).Where("order_id = ?", order.ID).First(&existing).Error; err == nil {
		return ok(c, existing)
	}

	now := time.Now()
	invoice := domain.Invoice{
		ID:        common.UUIDint64(),
		OrderID:   order.ID,
		Number:    fmt.Sprintf("INV-%s-%d", now.Format("20060102"), order.ID),
		IssuedAt:  now,
		Subtotal:  order.Subtotal,
		Total:     order.Total,
		Currency:  order.Currency,
		Status:    InvoiceStatusIssued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := GetDB(c).Create(&invoice).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create invoice", err.Error())
	}
	return ok(c, invoice)
}

func updateInvoice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	var invoice domain.Invoice
	if err := GetDB(c).Where("id = ?", id).First(&invoice).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
	}

	var payload invoicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse invoice", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	if payload.Status != "" {
		invoice.Status = payload.Status
	}
	if payload.PdfPath != "" {
		invoice.PdfPath = payload.PdfPath
	}
	invoice.Remark = payload.Remark
	invoice.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&invoice).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update invoice", err.Error())
	}
	return ok(c, invoice)
}

func deleteInvoice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Invoice{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete invoice", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
