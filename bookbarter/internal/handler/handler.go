package handler

import (
	"net/http"

	"github.com/Astemirdum/bookbarter/pkg/auth"
	md "github.com/Astemirdum/bookbarter/pkg/middleware"
	"github.com/Astemirdum/bookbarter/pkg/validate"
	_ "github.com/Astemirdum/bookbarter/swagger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	svc    Service
	tokens auth.Parser
	log    *zap.Logger
}

func New(svc Service, tokens auth.Parser, log *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		tokens: tokens,
		log:    log.Named("handler"),
	}
}

// @title BookBarter API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	authMW := auth.Middleware(h.tokens)

	users := api.Group("/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)

	books := api.Group("/books")
	books.GET("", h.ListBooks)
	books.GET("/user/:userId", h.ListUserBooks)
	books.POST("", h.CreateBook, authMW)
	books.PUT("/:id", h.UpdateBook, authMW)
	books.DELETE("/:id", h.DeleteBook, authMW)
	books.PUT("/:id/cover", h.UploadCover, authMW)
	books.POST("/contact", h.Contact, authMW)
	books.POST("/buy-request", h.BuyRequest, authMW)
	books.POST("/exchange-request", h.ExchangeRequest, authMW)

	notifications := api.Group("/notifications", authMW)
	notifications.GET("/user/:userId", h.ListNotifications)
	notifications.GET("/unread/:userId", h.UnreadCount)
	notifications.PUT("/:id/read", h.MarkRead)
	notifications.PUT("/:id/status", h.SetStatus)
	notifications.DELETE("/:id", h.DeleteNotification)

	api.GET("/stats/me", h.MyStats, authMW)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.UserID(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return id, nil
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.Errorf("invalid %s", name).Error())
	}
	return id, nil
}

func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
