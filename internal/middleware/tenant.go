package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/internal/tenancy"
	"github.com/suteetoe/backoffice/pkg/logger"
	"github.com/suteetoe/backoffice/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScopeKey is the echo.Context key holding the request's *store.Scope
const ScopeKey = "scope"

// TenantMiddleware installs the principal's tenant and a scope bound to it
// for the duration of one request. It must run after JWTAuthMiddleware.
//
// Echo recycles contexts, so the tenant and scope are cleared before the
// handler runs and again on every way out of it, panics included.
func TenantMiddleware(db *gorm.DB, accounts *store.Accounts, m *metrics.Business) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clearTenant(c)
			defer clearTenant(c)

			log := logger.FromEcho(c)
			ctx := c.Request().Context()

			var tenant *model.Tenant
			if claims, ok := Claims(c); ok && claims.TenantID != nil {
				t, err := accounts.TenantByID(ctx, *claims.TenantID)
				switch {
				case err == nil:
					tenant = t
				case !apperror.IsNotFound(err):
					log.Error("Failed to load tenant", zap.Uint("tenant_id", *claims.TenantID), zap.Error(err))
					return err
				}
			}

			if tenant == nil {
				m.RecordTenantContextMissing()
				log.Warn("Request served without tenant",
					zap.String("path", c.Request().URL.Path))
			} else {
				log = log.With(zap.Uint("tenant_id", tenant.ID))
				c.Set(logger.EchoKey, log)
				ctx = logger.WithContext(ctx, log)
			}

			c.SetRequest(c.Request().WithContext(tenancy.WithTenant(ctx, tenant)))
			c.Set(ScopeKey, store.ForContext(c.Request().Context(), db))

			return next(c)
		}
	}
}

func clearTenant(c echo.Context) {
	c.Set(ScopeKey, nil)
	c.SetRequest(c.Request().WithContext(tenancy.Clear(c.Request().Context())))
}

// Scope returns the scope installed by TenantMiddleware
func Scope(c echo.Context) (*store.Scope, error) {
	scope, ok := c.Get(ScopeKey).(*store.Scope)
	if !ok || scope == nil {
		return nil, apperror.Validation(apperror.CodeTenantRequired, "no tenant scope on this request")
	}
	return scope, nil
}
