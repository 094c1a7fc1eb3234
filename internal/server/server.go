// Package server assembles the echo application: middleware, services and routes.
package server

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/suteetoe/backoffice/internal/cache"
	"github.com/suteetoe/backoffice/internal/handler"
	"github.com/suteetoe/backoffice/internal/i18n"
	"github.com/suteetoe/backoffice/internal/middleware"
	"github.com/suteetoe/backoffice/internal/service"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/config"
	"github.com/suteetoe/backoffice/pkg/jwtutil"
	"github.com/suteetoe/backoffice/pkg/logger"
	"github.com/suteetoe/backoffice/pkg/metrics"
	"gorm.io/gorm"
)

// Options are the collaborators of the HTTP server
type Options struct {
	Config     *config.Config
	DB         *gorm.DB
	Dashboard  cache.Dashboard
	Registry   *prometheus.Registry
	Translator *i18n.Translator
}

// New returns the configured echo instance
func New(opts Options) *echo.Echo {
	cfg := opts.Config

	business := metrics.NewBusiness(opts.Registry, cfg.Metrics.Prefix)
	httpMetrics := metrics.NewHTTPMetrics(opts.Registry, cfg.Metrics.Prefix)
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)
	accounts := store.NewAccounts(opts.DB)

	h := handler.New(
		opts.DB,
		service.NewAccountService(accounts, jwt, business, cfg.Tenancy.DomainSuffix),
		service.NewOrderService(opts.Dashboard, business, cfg.Tenancy.ForwardOnlyOrderStatuses),
		service.NewDashboardService(opts.Dashboard, business),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(opts.Translator)

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(httpMetrics.Middleware())
	e.Use(logger.Middleware())

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(opts.Registry)))

	auth := e.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)

	// Every /api route runs with the principal's tenant installed
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwt))
	api.Use(middleware.TenantMiddleware(opts.DB, accounts, business))

	api.GET("/account", h.GetAccount)
	api.PATCH("/account", h.UpdateAccount)
	api.POST("/account/password", h.ChangePassword)

	api.GET("/dashboard", h.Dashboard)

	api.GET("/categories", h.ListCategories)
	api.POST("/categories", h.CreateCategory)
	api.DELETE("/categories/:id", h.DeleteCategory)

	api.GET("/products", h.ListProducts)
	api.POST("/products", h.CreateProduct)
	api.GET("/products/available", h.AvailableProducts)
	api.GET("/products/:id", h.GetProduct)
	api.PUT("/products/:id", h.UpdateProduct)
	api.DELETE("/products/:id", h.DeleteProduct)

	api.GET("/clients", h.ListClients)
	api.POST("/clients", h.CreateClient)
	api.DELETE("/clients/:id", h.DeleteClient)

	api.GET("/orders", h.ListOrders)
	api.POST("/orders", h.CreateOrder)
	api.GET("/orders/:id", h.GetOrder)
	api.PUT("/orders/:id", h.UpdateOrder)
	api.DELETE("/orders/:id", h.DeleteOrder)
	api.PATCH("/orders/:id/status", h.UpdateOrderStatus)

	return e
}
