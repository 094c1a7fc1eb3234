package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/middleware"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name       string          `json:"name" validate:"required,max=255"`
	CategoryID uint            `json:"category_id" validate:"required"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
}

// ListCategories returns the tenant's categories
func (h *Handler) ListCategories(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	categories, err := scope.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory adds a category
func (h *Handler) CreateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tenantID, _ := scope.TenantID()
	category := &model.Category{TenantID: &tenantID, Name: req.Name}
	if err := scope.CreateCategory(c.Request().Context(), category); err != nil {
		return err
	}

	log.Info("Category created", zap.Uint("category_id", category.ID), zap.String("name", category.Name))
	return c.JSON(http.StatusCreated, category)
}

// DeleteCategory removes a category no product uses
func (h *Handler) DeleteCategory(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	if err := scope.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}

	logger.FromEcho(c).Info("Category deleted", zap.Uint("category_id", id))
	return c.NoContent(http.StatusNoContent)
}

// ListProducts returns the tenant's products, optionally of one category
func (h *Handler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	var filter store.ProductFilter
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		id, err := strconv.ParseUint(categoryID, 10, 64)
		if err != nil {
			log.Warn("Invalid category_id parameter", zap.String("value", categoryID))
			return apperror.Validation(apperror.CodeInvalidInput, "invalid category_id").
				With("Reason", "category_id")
		}
		cid := uint(id)
		filter.CategoryID = &cid
	}

	products, err := scope.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	log.Debug("Products retrieved", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// AvailableProducts returns the products that can be ordered, by name
func (h *Handler) AvailableProducts(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	products, err := scope.ListProducts(c.Request().Context(), store.ProductFilter{InStock: true})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct returns one product
func (h *Handler) GetProduct(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrProductNotFound)
	if err != nil {
		return err
	}

	product, err := scope.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product
func (h *Handler) CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tenantID, _ := scope.TenantID()
	product := &model.Product{
		TenantID:   &tenantID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
	}
	ctx := c.Request().Context()
	if err := scope.CreateProduct(ctx, product); err != nil {
		return err
	}
	h.dashboard.Invalidate(ctx, scope)

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("price", product.Price.StringFixed(2)),
		zap.Int("stock", product.Stock))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product's fields
func (h *Handler) UpdateProduct(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrProductNotFound)
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tenantID, _ := scope.TenantID()
	ctx := c.Request().Context()
	if err := scope.UpdateProduct(ctx, &model.Product{
		ID:         id,
		TenantID:   &tenantID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
	}); err != nil {
		return err
	}
	h.dashboard.Invalidate(ctx, scope)

	product, err := scope.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	logger.FromEcho(c).Info("Product updated", zap.Uint("product_id", id))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product no order line uses
func (h *Handler) DeleteProduct(c echo.Context) error {
	scope, err := middleware.Scope(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", store.ErrProductNotFound)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := scope.DeleteProduct(ctx, id); err != nil {
		return err
	}
	h.dashboard.Invalidate(ctx, scope)

	logger.FromEcho(c).Info("Product deleted", zap.Uint("product_id", id))
	return c.NoContent(http.StatusNoContent)
}
