// Package middleware holds the echo middleware of the back-office API.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/pkg/jwtutil"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

// UserKey is the echo.Context key holding the authenticated *jwtutil.UserClaims
const UserKey = "user"

var (
	errMissingToken = apperror.Unauthorized("unauthorized", "missing authorization token")
	errInvalidToken = apperror.Unauthorized("invalid_token", "invalid or expired token")
)

// JWTAuthMiddleware validates the bearer token and stores its claims under UserKey
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return errMissingToken
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid authorization header format")
				return errMissingToken
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return errInvalidToken.Wrap(err)
			}

			c.Set(UserKey, claims)
			log.Debug("JWT token validated successfully",
				zap.Uint("user_id", claims.UserID),
				zap.String("username", claims.Username))

			return next(c)
		}
	}
}

// Claims returns the authenticated principal's claims
func Claims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(UserKey).(*jwtutil.UserClaims)
	return claims, ok && claims != nil
}
