package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/middleware"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

type clientRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"required,max=20"`
	Area  string `json:"area" validate:"max=100"`
}

// ListClients returns the tenant's clients; ?sort=name orders them by name
func (h *Handler) ListClients(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	clients, err := scope.ListClients(c.Request().Context(), c.QueryParam("sort") == "name")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}

// CreateClient adds a client
func (h *Handler) CreateClient(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	var req clientRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tenantID, _ := scope.TenantID()
	client := &model.Client{TenantID: &tenantID, Name: req.Name, Phone: req.Phone, Area: req.Area}
	ctx := c.Request().Context()
	if err := scope.CreateClient(ctx, client); err != nil {
		return err
	}
	h.dashboard.Invalidate(ctx, scope)

	logger.FromEcho(c).Info("Client created", zap.Uint("client_id", client.ID))
	return c.JSON(http.StatusCreated, client)
}

// DeleteClient removes a client without orders
func (h *Handler) DeleteClient(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrClientNotFound)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := scope.DeleteClient(ctx, id); err != nil {
		return err
	}
	h.dashboard.Invalidate(ctx, scope)

	logger.FromEcho(c).Info("Client deleted", zap.Uint("client_id", id))
	return c.NoContent(http.StatusNoContent)
}
