// Package handler is the JSON HTTP adapter over the back-office services.
//
// Tenant data is reached only through the *store.Scope installed by
// middleware.TenantMiddleware, and order mutations through
// service.OrderService. Errors are returned to echo and rendered by
// ErrorHandler.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/service"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler holds the dependencies of the API endpoints
type Handler struct {
	db        *gorm.DB
	accounts  *service.AccountService
	orders    *service.OrderService
	dashboard *service.DashboardService
}

// New returns the API handlers
func New(db *gorm.DB, accounts *service.AccountService, orders *service.OrderService, dashboard *service.DashboardService) *Handler {
	return &Handler{
		db:        db,
		accounts:  accounts,
		orders:    orders,
		dashboard: dashboard,
	}
}

var errMalformedBody = apperror.Validation(apperror.CodeInvalidInput, "invalid request data").
	With("Reason", "malformed request body")

// bind decodes the request body into req and runs the struct validator
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.FromEcho(c).Warn("Invalid request data", zap.Error(err))
		return errMalformedBody.Wrap(err)
	}
	return c.Validate(req)
}

// paramID parses a positive numeric path parameter. Anything else cannot
// name a row, so it is reported as notFound.
func paramID(c echo.Context, name string, notFound *apperror.Error) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return uint(id), nil
}
