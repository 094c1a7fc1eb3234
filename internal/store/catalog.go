package store

import (
	"context"

	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCategoryNotFound = apperror.NotFound("category_not_found", "category not found")
	ErrCategoryTaken    = apperror.Conflict("category_name_taken", "a category with this name already exists")
	ErrCategoryInUse    = apperror.Conflict("category_in_use", "category still has products")

	ErrProductNotFound   = apperror.NotFound("product_not_found", "product not found")
	ErrProductTaken      = apperror.Conflict("product_name_taken", "a product with this name already exists")
	ErrProductReferenced = apperror.Conflict("product_in_use", "product is referenced by orders")
)

// ListCategories returns the tenant's categories, newest first
func (s *Scope) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.model(ctx, &model.Category{}, "categories").
		Order("categories.created_at DESC, categories.id DESC").
		Find(&categories).Error
	return categories, err
}

// GetCategory returns one of the tenant's categories
func (s *Scope) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	q := s.model(ctx, &model.Category{}, "categories").Where("categories.id = ?", id)
	if err := first(q, &c, ErrCategoryNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category stamped with the scope's tenant
func (s *Scope) CreateCategory(ctx context.Context, c *model.Category) error {
	if err := s.checkStamp(c); err != nil {
		return err
	}
	if c.Name == "" {
		return apperror.Validation(apperror.CodeInvalidInput, "category name is required")
	}

	var count int64
	if err := s.model(ctx, &model.Category{}, "categories").
		Where("categories.name = ?", c.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryTaken
	}

	return duplicate(s.db.WithContext(ctx).Create(c).Error, ErrCategoryTaken)
}

// DeleteCategory removes a category that no product references
func (s *Scope) DeleteCategory(ctx context.Context, id uint) error {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.model(ctx, &model.Product{}, "products").
		Where("products.category_id = ?", c.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse.With("Count", count)
	}

	return s.model(ctx, &model.Category{}, "categories").
		Where("categories.id = ?", c.ID).
		Delete(&model.Category{}).Error
}

// ProductFilter narrows ListProducts
type ProductFilter struct {
	CategoryID *uint
	// InStock keeps products with stock > 0 and sorts them by name
	InStock bool
}

// ListProducts returns the tenant's products with their category
func (s *Scope) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	q := s.model(ctx, &model.Product{}, "products").Preload("Category")
	if filter.CategoryID != nil {
		q = q.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.InStock {
		q = q.Where("products.stock > 0").Order("products.name ASC")
	} else {
		q = q.Order("products.created_at DESC, products.id DESC")
	}

	var products []model.Product
	err := q.Find(&products).Error
	return products, err
}

// GetProduct returns one of the tenant's products with its category
func (s *Scope) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	q := s.model(ctx, &model.Product{}, "products").Preload("Category").Where("products.id = ?", id)
	if err := first(q, &p, ErrProductNotFound); err != nil {
		return nil, err
	}
	return &p, nil
}

// LockProduct loads a product with SELECT ... FOR UPDATE. It must run
// inside Transaction for the lock to hold.
func (s *Scope) LockProduct(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	q := s.model(ctx, &model.Product{}, "products").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("products.id = ?", id)
	if err := first(q, &p, ErrProductNotFound); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product stamped with the scope's tenant
func (s *Scope) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := s.checkStamp(p); err != nil {
		return err
	}
	if err := s.validateProduct(ctx, p); err != nil {
		return err
	}
	return duplicate(s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error, ErrProductTaken)
}

// UpdateProduct saves name, category, price and stock of an existing product
func (s *Scope) UpdateProduct(ctx context.Context, p *model.Product) error {
	if err := s.checkStamp(p); err != nil {
		return err
	}
	if _, err := s.GetProduct(ctx, p.ID); err != nil {
		return err
	}
	if err := s.validateProduct(ctx, p); err != nil {
		return err
	}

	err := s.model(ctx, &model.Product{}, "products").
		Where("products.id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"category_id": p.CategoryID,
			"price":       p.Price,
			"stock":       p.Stock,
		}).Error
	return duplicate(err, ErrProductTaken)
}

func (s *Scope) validateProduct(ctx context.Context, p *model.Product) error {
	switch {
	case p.Name == "":
		return apperror.Validation(apperror.CodeInvalidInput, "product name is required")
	case !model.ValidAmount(p.Price):
		return apperror.Validation("invalid_price", "price must not be negative and have at most 2 decimals")
	case p.Stock < 0:
		return apperror.Validation("invalid_stock", "stock must not be negative")
	}

	if _, err := s.GetCategory(ctx, p.CategoryID); err != nil {
		return err
	}

	var count int64
	q := s.model(ctx, &model.Product{}, "products").Where("products.name = ?", p.Name)
	if p.ID != 0 {
		q = q.Where("products.id <> ?", p.ID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrProductTaken
	}
	return nil
}

// DeleteProduct removes a product that no order line references
func (s *Scope) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("product_id = ?", p.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrProductReferenced.With("Count", count)
	}

	return s.model(ctx, &model.Product{}, "products").
		Where("products.id = ?", p.ID).
		Delete(&model.Product{}).Error
}

// DecrementStock removes qty units from a product only if at least qty are
// left. It reports false when the guard rejected the update.
func (s *Scope) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := s.model(ctx, &model.Product{}, "products").
		Where("products.id = ? AND products.stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock puts qty units back on a product
func (s *Scope) RestoreStock(ctx context.Context, id uint, qty int) error {
	return s.model(ctx, &model.Product{}, "products").
		Where("products.id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
