package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/shop"
	"github.com/pyropuff/pyroshop/internal/webserver"
	"github.com/pyropuff/pyroshop/pkg/common"
)

type productPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Sku         string `json:"sku"`
	Stock       *int   `json:"stock"`
	Active      *bool  `json:"active"`
	CategoryID  *int64 `json:"category_id,string"`
}

type pricePayload struct {
	Role     string          `json:"role" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

type imagePayload struct {
	StoragePath string `json:"storage_path" validate:"required"`
	Position    int    `json:"position"`
}

// registerProductRoutes registers product CRUD plus the price-list
// and gallery sub-resources.
func registerProductRoutes(ws *webserver.WebServer) {
	ws.AdmGET("/crm/products", listProducts)
	ws.AdmGET("/crm/products/:id", getProduct)
	ws.AdmPOST("/crm/products", createProduct)
	ws.AdmPUT("/crm/products/:id", updateProduct)
	ws.AdmDELETE("/crm/products/:id", deleteProduct)

	ws.AdmPUT("/crm/products/:id/prices", setProductPrice)
	ws.AdmDELETE("/crm/products/:id/prices/:role", deleteProductPrice)
	ws.AdmPOST("/crm/products/:id/images", addProductImage)
	ws.AdmDELETE("/crm/products/:id/images/:imageId", deleteProductImage)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// Sorting: whitelist allowed columns to avoid SQL injection
	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	allowed := map[string]string{
		"id":         "id",
		"name":       "name",
		"stock":      "stock",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol || sortCol == "" {
		sortCol = "id"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
			db = db.Where("name ILIKE ? OR sku ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			db = db.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", "%"+strings.ToLower(q)+"%", "%"+strings.ToLower(q)+"%")
		}
	}
	if active := strings.TrimSpace(c.QueryParam("active")); active != "" {
		db = db.Where("active = ?", active == "true")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var prices []domain.ProductPrice
	GetDB(c).Where("product_id = ?", id).Order("role ASC").Find(&prices)
	var images []domain.ProductImage
	GetDB(c).Where("product_id = ?", id).Order("position ASC").Find(&images)

	return ok(c, map[string]interface{}{"product": p, "prices": prices, "images": images})
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	slug := strings.TrimSpace(payload.Slug)
	if slug == "" {
		slug = common.Slugify(payload.Name)
	}
	if slug == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to derive slug from name", nil)
	}
	var dup domain.Product
	if err := GetDB(c).Where("slug = ?", slug).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_SLUG", "A product with this slug already exists", nil)
	}

	stock := 0
	if payload.Stock != nil {
		if *payload.Stock < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock must be >= 0", nil)
		}
		stock = *payload.Stock
	}
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	now := time.Now()
	p := domain.Product{
		ID:          common.UUIDint64(),
		CategoryID:  payload.CategoryID,
		Name:        strings.TrimSpace(payload.Name),
		Slug:        slug,
		Description: payload.Description,
		Sku:         strings.TrimSpace(payload.Sku),
		Stock:       stock,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	if payload.Stock != nil && *payload.Stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock must be >= 0", nil)
	}

	p.Name = strings.TrimSpace(payload.Name)
	if slug := strings.TrimSpace(payload.Slug); slug != "" && slug != p.Slug {
		var dup domain.Product
		if err := GetDB(c).Where("slug = ? AND id != ?", slug, id).First(&dup).Error; err == nil {
			return fail(c, http.StatusConflict, "DUPLICATE_SLUG", "A product with this slug already exists", nil)
		}
		p.Slug = slug
	}
	p.Description = payload.Description
	p.Sku = strings.TrimSpace(payload.Sku)
	p.CategoryID = payload.CategoryID
	if payload.Stock != nil {
		p.Stock = *payload.Stock
	}
	if payload.Active != nil {
		p.Active = *payload.Active
	}
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	return ok(c, p)
}

// deleteProduct disables products referenced by orders instead of
// removing them, so frozen order lines keep a valid reference.
func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var refs int64
	if err := GetDB(c).Model(&domain.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check order references", err.Error())
	}
	if refs > 0 {
		err := GetDB(c).Model(&domain.Product{}).Where("id = ?", id).
			Updates(map[string]interface{}{"active": false, "updated_at": time.Now()}).Error
		if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to disable product", err.Error())
		}
		return ok(c, map[string]interface{}{"id": id, "disabled": true})
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	GetDB(c).Where("product_id = ?", id).Delete(&domain.ProductPrice{})
	GetDB(c).Where("product_id = ?", id).Delete(&domain.ProductImage{})
	return ok(c, map[string]interface{}{"id": id})
}

// setProductPrice upserts the price list entry for one role.
func setProductPrice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload pricePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse price", err.Error())
	}
	if payload.Price.Sign() <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be > 0", nil)
	}
	tier := shop.CanonicalRole(payload.Role)
	currency := payload.Currency
	if currency == "" {
		currency = GetApp(c).Config().Shipping.Currency
	}

	var entry domain.ProductPrice
	err = GetDB(c).Where("product_id = ? AND role = ?", id, tier).First(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = domain.ProductPrice{
			ID:        common.UUIDint64(),
			ProductID: id,
			Role:      tier,
			Price:     payload.Price,
			Currency:  currency,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := GetDB(c).Create(&entry).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create price", err.Error())
		}
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query price", err.Error())
	default:
		err := GetDB(c).Model(&entry).Updates(map[string]interface{}{
			"price":      payload.Price,
			"currency":   currency,
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update price", err.Error())
		}
	}
	return ok(c, entry)
}

func deleteProductPrice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	tier := shop.CanonicalRole(c.Param("role"))
	if err := GetDB(c).Where("product_id = ? AND role = ?", id, tier).Delete(&domain.ProductPrice{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete price", err.Error())
	}
	return ok(c, map[string]interface{}{"product_id": id, "role": tier})
}

func addProductImage(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload imagePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse image", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	img := domain.ProductImage{
		ID:          common.UUIDint64(),
		ProductID:   id,
		StoragePath: strings.TrimSpace(payload.StoragePath),
		Position:    payload.Position,
		CreatedAt:   time.Now(),
	}
	if err := GetDB(c).Create(&img).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create image", err.Error())
	}
	return ok(c, img)
}

func deleteProductImage(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	imageID, err := parseIDParam(c, "imageId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID", nil)
	}
	if err := GetDB(c).Where("id = ? AND product_id = ?", imageID, id).Delete(&domain.ProductImage{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete image", err.Error())
	}
	return ok(c, map[string]interface{}{"id": imageID})
}
