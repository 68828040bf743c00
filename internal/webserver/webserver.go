package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/internal/app"
)

// Context keys under which the application is exposed to handlers.
const (
	ContextKeyApp = "pyroshop_app"
	ContextKeyDB  = "pyroshop_db"
)

// WebServer hosts the public shop API under /api and the JWT-gated
// admin API under /api/admin.
type WebServer struct {
	root  *echo.Echo
	app   app.AppContext
	pub   *echo.Group
	admin *echo.Group
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsoniterSerializer{}
	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	ws := &WebServer{root: e, app: appCtx}

	// inject the application into every request context
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyApp, appCtx)
			c.Set(ContextKeyDB, appCtx.DB())
			return next(c)
		}
	})

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Status >= http.StatusInternalServerError {
				zap.L().Error("request",
					zap.String("method", v.Method), zap.String("uri", v.URI), zap.Int("status", v.Status))
			} else {
				zap.L().Debug("request",
					zap.String("method", v.Method), zap.String("uri", v.URI), zap.Int("status", v.Status))
			}
			return nil
		},
	}))

	ws.pub = e.Group("/api")

	ws.admin = e.Group("/api/admin")
	ws.admin.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(appCtx.Config().Web.Secret),
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/admin/login"
		},
	}))

	ws.registerAuthRoutes()

	return ws
}

// GetApp returns the application context injected by the middleware.
func GetApp(c echo.Context) app.AppContext {
	return c.Get(ContextKeyApp).(app.AppContext)
}

// GetDB returns the request database handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get(ContextKeyDB).(*gorm.DB)
}

func (ws *WebServer) PubGET(path string, h echo.HandlerFunc)    { ws.pub.GET(path, h) }
func (ws *WebServer) PubPOST(path string, h echo.HandlerFunc)   { ws.pub.POST(path, h) }
func (ws *WebServer) PubPUT(path string, h echo.HandlerFunc)    { ws.pub.PUT(path, h) }
func (ws *WebServer) PubDELETE(path string, h echo.HandlerFunc) { ws.pub.DELETE(path, h) }

func (ws *WebServer) AdmGET(path string, h echo.HandlerFunc)    { ws.admin.GET(path, h) }
func (ws *WebServer) AdmPOST(path string, h echo.HandlerFunc)   { ws.admin.POST(path, h) }
func (ws *WebServer) AdmPUT(path string, h echo.HandlerFunc)    { ws.admin.PUT(path, h) }
func (ws *WebServer) AdmDELETE(path string, h echo.HandlerFunc) { ws.admin.DELETE(path, h) }

// Echo exposes the underlying instance (used in tests).
func (ws *WebServer) Echo() *echo.Echo {
	return ws.root
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	cfg := ws.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("web server listening", zap.String("addr", addr))
		errCh <- ws.root.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ws.root.Shutdown(shutdownCtx)
	}
}

type jsoniterSerializer struct{}

func (jsoniterSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsoniterSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := jsoniter.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
