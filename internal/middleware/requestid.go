package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware adds a unique request ID to each request and a logger
// tagged with it to the echo and request contexts
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set(RequestIDHeader, requestID)
			}

			// Add request ID to response header
			c.Response().Header().Set(RequestIDHeader, requestID)

			ctxLogger := logger.GetLogger().With(zap.String("request_id", requestID))
			c.Set(logger.EchoKey, ctxLogger)
			c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context(), ctxLogger)))

			return next(c)
		}
	}
}
