package shopapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/shop"
)

// productView is a product with its gallery and the price resolved
// for the caller's role. Price is omitted when none is configured.
type productView struct {
	domain.Product
	Category *domain.Category      `json:"category,omitempty"`
	Images   []domain.ProductImage `json:"images"`
	Price    *shop.ResolvedPrice   `json:"price,omitempty"`
}

func (h *Handler) listProducts(c echo.Context) error {
	role := callerRole(c)
	db := GetDB(c).Model(&domain.Product{}).Where("active = ?", true)

	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		if id, err := strconv.ParseInt(cat, 10, 64); err == nil {
			db = db.Where("category_id = ?", id)
		}
	}
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	limit := 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o > 0 {
		offset = o
	}

	var products []domain.Product
	if err := db.Order("id DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, h.buildProductView(c, p, role))
	}
	return ok(c, views)
}

func (h *Handler) getProduct(c echo.Context) error {
	slug := c.Param("slug")
	var product domain.Product
	err := GetDB(c).Where("slug = ? AND active = ?", slug, true).First(&product).Error
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, h.buildProductView(c, product, callerRole(c)))
}

func (h *Handler) listCategories(c echo.Context) error {
	var categories []domain.Category
	if err := GetDB(c).Order("name ASC").Find(&categories).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	return ok(c, categories)
}

func (h *Handler) buildProductView(c echo.Context, p domain.Product, role string) productView {
	view := productView{Product: p, Images: []domain.ProductImage{}}

	if p.CategoryID != nil {
		var cat domain.Category
		if err := GetDB(c).Where("id = ?", *p.CategoryID).First(&cat).Error; err == nil {
			view.Category = &cat
		}
	}
	GetDB(c).Where("product_id = ?", p.ID).Order("position ASC").Find(&view.Images)

	price, err := h.pricing.ResolvePrice(c.Request().Context(), p.ID, role)
	if err == nil {
		view.Price = &price
	} else if !errors.Is(err, shop.ErrPriceNotFound) {
		// storage failures should not hide the product itself
		view.Price = nil
	}
	return view
}
