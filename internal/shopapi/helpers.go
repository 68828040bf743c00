package shopapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/internal/shop"
	"github.com/pyropuff/pyroshop/internal/webserver"
)

// Identity headers set by the auth reverse proxy. Authentication
// itself is an external capability; the shop trusts these values the
// way the original trusted its auth provider's session.
const (
	HeaderUserID     = "X-User-Id"
	HeaderGuestToken = "X-Guest-Token"
)

func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"code": 0, "data": data})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{"code": code, "message": msg, "detail": detail})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// callerIdentity builds the shop identity from the request headers.
func callerIdentity(c echo.Context) shop.Identity {
	if uid := c.Request().Header.Get(HeaderUserID); uid != "" {
		return shop.UserIdentity(uid)
	}
	return shop.GuestIdentity(c.Request().Header.Get(HeaderGuestToken))
}

// callerRole resolves the caller's profile role; guests price retail.
func callerRole(c echo.Context) string {
	uid := c.Request().Header.Get(HeaderUserID)
	if uid == "" {
		return shop.TierRetail
	}
	var profile domain.Customer
	if err := GetDB(c).Where("id = ?", uid).First(&profile).Error; err != nil {
		return shop.TierRetail
	}
	return profile.Role
}
