package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/middleware"
	"github.com/suteetoe/backoffice/internal/service"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

var errNoPrincipal = apperror.Unauthorized("unauthorized", "authentication required")

// Register creates an account and its tenant and returns a session
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}

	log.Info("Registration request", zap.String("username", req.Username))
	sess, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login authenticates a principal on the requested host
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	sess, err := h.accounts.Login(c.Request().Context(), req.Username, req.Password, c.Request().Host)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// GetAccount returns the authenticated principal
func (h *Handler) GetAccount(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return errNoPrincipal
	}

	user, err := h.accounts.Profile(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateAccount edits the principal's profile
func (h *Handler) UpdateAccount(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return errNoPrincipal
	}

	var req service.ProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateProfile(c.Request().Context(), claims.UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the principal's password
func (h *Handler) ChangePassword(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return errNoPrincipal
	}

	var req passwordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), claims.UserID,
		req.CurrentPassword, req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	logger.FromEcho(c).Info("Password changed", zap.Uint("user_id", claims.UserID))
	return c.NoContent(http.StatusNoContent)
}
