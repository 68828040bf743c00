package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/shop"
	"github.com/pyropuff/pyroshop/internal/webserver"
)

type customerPayload struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func registerCustomerRoutes(ws *webserver.WebServer) {
	ws.AdmGET("/crm/customers", listCustomers)
	ws.AdmGET("/crm/customers/:id", getCustomer)
	ws.AdmPUT("/crm/customers/:id", updateCustomer)
	ws.AdmGET("/crm/customers/:id/orders", listCustomerOrders)
	ws.AdmGET("/crm/customers/:id/addresses", listCustomerAddresses)
}

func listCustomers(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.Customer{})

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	if role := strings.TrimSpace(c.QueryParam("role")); role != "" {
		db = db.Where("role = ?", shop.CanonicalRole(role))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	var rows []domain.Customer
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getCustomer(c echo.Context) error {
	id := c.Param("id")
	var customer domain.Customer
	if err := GetDB(c).Where("id = ?", id).First(&customer).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	return ok(c, customer)
}

// updateCustomer edits profile fields; the role is normalized to a
// known pricing tier so a typo can never silently change pricing.
func updateCustomer(c echo.Context) error {
	id := c.Param("id")
	var customer domain.Customer
	if err := GetDB(c).Where("id = ?", id).First(&customer).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	if payload.Email != "" {
		customer.Email = payload.Email
	}
	customer.FirstName = payload.FirstName
	customer.LastName = payload.LastName
	customer.Phone = payload.Phone
	if payload.Role != "" {
		customer.Role = shop.CanonicalRole(payload.Role)
	}
	customer.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&customer).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update customer", err.Error())
	}
	return ok(c, customer)
}

func listCustomerOrders(c echo.Context) error {
	id := c.Param("id")
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.Order{}).Where("user_id = ?", id)

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

func listCustomerAddresses(c echo.Context) error {
	id := c.Param("id")
	var rows []domain.Address
	if err := GetDB(c).Where("user_id = ?", id).Order("id").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query addresses", err.Error())
	}
	return ok(c, rows)
}
