package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/webserver"
	"github.com/pyropuff/pyroshop/pkg/common"
)

type categoryPayload struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id,string"`
	Remark   string `json:"remark"`
}

func registerCategoryRoutes(ws *webserver.WebServer) {
	ws.AdmGET("/crm/categories", listCategories)
	ws.AdmPOST("/crm/categories", createCategory)
	ws.AdmPUT("/crm/categories/:id", updateCategory)
	ws.AdmDELETE("/crm/categories/:id", deleteCategory)
}

func listCategories(c echo.Context) error {
	var rows []domain.Category
	if err := GetDB(c).Order("name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	return ok(c, rows)
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	slug := strings.TrimSpace(payload.Slug)
	if slug == "" {
		slug = common.Slugify(payload.Name)
	}

	cat := domain.Category{
		ID:        common.UUIDint64(),
		ParentID:  payload.ParentID,
		Name:      strings.TrimSpace(payload.Name),
		Slug:      slug,
		Remark:    payload.Remark,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create category", err.Error())
	}
	return ok(c, cat)
}

func updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var cat domain.Category
	if err := GetDB(c).Where("id = ?", id).First(&cat).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Category not found", nil)
	}
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	cat.Name = strings.TrimSpace(payload.Name)
	if slug := strings.TrimSpace(payload.Slug); slug != "" {
		cat.Slug = slug
	}
	cat.ParentID = payload.ParentID
	cat.Remark = payload.Remark
	cat.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update category", err.Error())
	}
	return ok(c, cat)
}

func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	// detach products first so catalog queries keep working
	if err := GetDB(c).Model(&domain.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach products", err.Error())
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Category{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete category", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
