package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/webserver"
	"github.com/pyropuff/pyroshop/pkg/common"
)

type couponPayload struct {
	Code           string          `json:"code" validate:"required,min=1,max=64"`
	Type           string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	MaxUses        int             `json:"max_uses"`
	StartsAt       *time.Time      `json:"starts_at"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	Active         *bool           `json:"active"`
}

func registerCouponRoutes(ws *webserver.WebServer) {
	ws.AdmGET("/crm/coupons", listCoupons)
	ws.AdmGET("/crm/coupons/:id", getCoupon)
	ws.AdmPOST("/crm/coupons", createCoupon)
	ws.AdmPUT("/crm/coupons/:id", updateCoupon)
	ws.AdmDELETE("/crm/coupons/:id", deleteCoupon)
}

func listCoupons(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.Coupon{})

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(code) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if active := strings.TrimSpace(c.QueryParam("active")); active != "" {
		db = db.Where("active = ?", active == "true")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query coupons", err.Error())
	}
	var rows []domain.Coupon
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query coupons", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getCoupon(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid coupon ID", nil)
	}
	var coupon domain.Coupon
	if err := GetDB(c).Where("id = ?", id).First(&coupon).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Coupon not found", nil)
	}
	return ok(c, coupon)
}

func validateCouponPayload(payload *couponPayload) string {
	if payload.Value.Sign() <= 0 {
		return "Value must be > 0"
	}
	if payload.Type == domain.CouponTypePercentage && payload.Value.GreaterThan(decimal.NewFromInt(100)) {
		return "Percentage value must be <= 100"
	}
	if payload.MaxUses < 0 {
		return "Max uses must be >= 0"
	}
	return ""
}

func createCoupon(c echo.Context) error {
	var payload couponPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse coupon", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	if msg := validateCouponPayload(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	var dup domain.Coupon
	if err := GetDB(c).Where("code = ?", code).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_COUPON", "A coupon with this code already exists", nil)
	}

	startsAt := time.Now()
	if payload.StartsAt != nil {
		startsAt = *payload.StartsAt
	}
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	coupon := domain.Coupon{
		ID:             common.UUIDint64(),
		Code:           code,
		Type:           payload.Type,
		Value:          payload.Value,
		MinOrderAmount: payload.MinOrderAmount,
		MaxUses:        payload.MaxUses,
		StartsAt:       startsAt,
		ExpiresAt:      payload.ExpiresAt,
		Active:         active,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := GetDB(c).Create(&coupon).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create coupon", err.Error())
	}
	return ok(c, coupon)
}

func updateCoupon(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid coupon ID", nil)
	}
	var coupon domain.Coupon
	if err := GetDB(c).Where("id = ?", id).First(&coupon).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Coupon not found", nil)
	}

	var payload couponPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse coupon", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	if msg := validateCouponPayload(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(payload.Code))
	coupon.Type = payload.Type
	coupon.Value = payload.Value
	coupon.MinOrderAmount = payload.MinOrderAmount
	coupon.MaxUses = payload.MaxUses
	if payload.StartsAt != nil {
		coupon.StartsAt = *payload.StartsAt
	}
	coupon.ExpiresAt = payload.ExpiresAt
	if payload.Active != nil {
		coupon.Active = *payload.Active
	}
	coupon.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&coupon).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update coupon", err.Error())
	}
	return ok(c, coupon)
}

func deleteCoupon(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid coupon ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Coupon{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete coupon", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
