package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/backoffice/internal/middleware"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/service"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

type statusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

// ListOrders returns one page of orders.
// Query: search, status, delivery_mode, page.
func (h *Handler) ListOrders(c echo.Context) error {
	log := logger.FromEcho(c)
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	filter := store.OrderFilter{
		Search:       c.QueryParam("search"),
		Status:       model.OrderStatus(c.QueryParam("status")),
		DeliveryMode: model.DeliveryMode(c.QueryParam("delivery_mode")),
		Page:         1,
	}
	if page := c.QueryParam("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			log.Warn("Invalid page parameter", zap.String("value", page))
		} else {
			filter.Page = n
		}
	}

	result, err := scope.ListOrders(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetOrder returns an order with its client and lines
func (h *Handler) GetOrder(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrOrderNotFound)
	if err != nil {
		return err
	}

	order, err := scope.GetOrder(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// CreateOrder records an order and takes its stock
func (h *Handler) CreateOrder(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	var req service.OrderInput
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orders.Create(c.Request().Context(), scope, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// UpdateOrder replaces an order's client, delivery and lines
func (h *Handler) UpdateOrder(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrOrderNotFound)
	if err != nil {
		return err
	}

	var req service.OrderInput
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orders.Update(c.Request().Context(), scope, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order and gives its stock back
func (h *Handler) DeleteOrder(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrOrderNotFound)
	if err != nil {
		return err
	}

	if err := h.orders.Delete(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateOrderStatus moves an order to another status
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrOrderNotFound)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), scope, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Dashboard returns the tenant's statistics
func (h *Handler) Dashboard(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboard.Stats(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
