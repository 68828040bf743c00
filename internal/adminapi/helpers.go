package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/app"
	"github.com/pyropuff/pyroshop/internal/webserver"
)

// GetDB returns the request database handle.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

// GetApp returns the application context.
func GetApp(c echo.Context) app.AppContext {
	return webserver.GetApp(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"code": 0, "data": data})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{"code": code, "message": msg, "detail": detail})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":      0,
		"data":      rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// Register wires every admin route group.
func Register(ws *webserver.WebServer) {
	registerProductRoutes(ws)
	registerCategoryRoutes(ws)
	registerCouponRoutes(ws)
	registerCustomerRoutes(ws)
	registerOrderRoutes(ws)
	registerInvoiceRoutes(ws)
	registerSettingsRoutes(ws)
}
