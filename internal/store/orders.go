package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOrderNotFound = apperror.NotFound("order_not_found", "order not found")

// OrderFilter narrows ListOrders. Zero values mean no filter.
type OrderFilter struct {
	// Search matches the order id, or part of the client's name or phone
	Search       string
	Status       model.OrderStatus
	DeliveryMode model.DeliveryMode
	Page         int
	PageSize     int
}

// OrderPage is one page of orders. TotalRevenue covers every order of the
// tenant regardless of the filter.
type OrderPage struct {
	Orders       []model.Order   `json:"orders"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
	TotalPages   int             `json:"total_pages"`
	TotalCount   int64           `json:"total_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// ListOrders returns one page of the tenant's orders with their client,
// newest first. Out of range pages are clamped.
func (s *Scope) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	q := s.model(ctx, &model.Order{}, "orders").
		Joins("JOIN clients ON clients.id = orders.client_id")
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		cond := s.db.Session(&gorm.Session{NewDB: true}).
			Where("LOWER(clients.name) LIKE ?", pattern).
			Or("clients.phone LIKE ?", pattern)
		if id, err := strconv.ParseUint(search, 10, 64); err == nil {
			cond = cond.Or("orders.id = ?", id)
		}
		q = q.Where(cond)
	}
	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	if filter.DeliveryMode != "" {
		q = q.Where("orders.delivery_mode = ?", filter.DeliveryMode)
	}

	page := &OrderPage{PageSize: pageSize, Orders: []model.Order{}}
	if err := q.Session(&gorm.Session{}).Count(&page.TotalCount).Error; err != nil {
		return nil, err
	}

	page.TotalPages = int((page.TotalCount + int64(pageSize) - 1) / int64(pageSize))
	page.Page = filter.Page
	if page.Page > page.TotalPages {
		page.Page = page.TotalPages
	}
	if page.Page < 1 {
		page.Page = 1
	}

	if page.TotalCount > 0 {
		if err := q.Preload("Client").
			Order("orders.created_at DESC, orders.id DESC").
			Offset((page.Page - 1) * pageSize).
			Limit(pageSize).
			Find(&page.Orders).Error; err != nil {
			return nil, err
		}
	}

	revenue, err := s.revenue(ctx)
	if err != nil {
		return nil, err
	}
	page.TotalRevenue = revenue
	return page, nil
}

// GetOrder returns an order with its client and items
func (s *Scope) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	q := s.model(ctx, &model.Order{}, "orders").
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Product").
		Where("orders.id = ?", id)
	if err := first(q, &o, ErrOrderNotFound); err != nil {
		return nil, err
	}
	return &o, nil
}

// LockOrder loads an order and its items with SELECT ... FOR UPDATE. It
// must run inside Transaction for the lock to hold.
func (s *Scope) LockOrder(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	q := s.model(ctx, &model.Order{}, "orders").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("orders.id = ?", id)
	if err := first(q, &o, ErrOrderNotFound); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", o.ID).
		Order("id ASC").
		Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts an order without items
func (s *Scope) CreateOrder(ctx context.Context, o *model.Order) error {
	if err := s.checkStamp(o); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

// AddOrderItem inserts a line on one of the tenant's orders
func (s *Scope) AddOrderItem(ctx context.Context, o *model.Order, item *model.OrderItem) error {
	if err := s.checkStamp(o); err != nil {
		return err
	}
	item.OrderID = o.ID
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// DeleteOrderItems removes every line of an order
func (s *Scope) DeleteOrderItems(ctx context.Context, o *model.Order) error {
	if err := s.checkStamp(o); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("order_id = ?", o.ID).Delete(&model.OrderItem{}).Error
}

// SaveOrder writes the client, delivery and total fields of an order
func (s *Scope) SaveOrder(ctx context.Context, o *model.Order) error {
	if err := s.checkStamp(o); err != nil {
		return err
	}
	return s.model(ctx, &model.Order{}, "orders").
		Where("orders.id = ?", o.ID).
		Updates(map[string]interface{}{
			"client_id":     o.ClientID,
			"delivery_mode": o.DeliveryMode,
			"delivery_fee":  o.DeliveryFee,
			"total_amount":  o.TotalAmount,
		}).Error
}

// SetOrderStatus writes the status of an order
func (s *Scope) SetOrderStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	res := s.model(ctx, &model.Order{}, "orders").
		Where("orders.id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// some drivers report zero rows when the value is unchanged
	var count int64
	if err := s.model(ctx, &model.Order{}, "orders").Where("orders.id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder removes an order row. Items must be removed first.
func (s *Scope) DeleteOrder(ctx context.Context, o *model.Order) error {
	if err := s.checkStamp(o); err != nil {
		return err
	}
	return s.model(ctx, &model.Order{}, "orders").
		Where("orders.id = ?", o.ID).
		Delete(&model.Order{}).Error
}

// Dashboard aggregates the tenant's catalog and order activity. Sales
// count delivered orders; revenue sums every order.
func (s *Scope) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	if err := s.model(ctx, &model.Product{}, "products").Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := s.model(ctx, &model.Client{}, "clients").Count(&stats.TotalClients).Error; err != nil {
		return nil, err
	}
	if err := s.model(ctx, &model.Order{}, "orders").
		Where("orders.status = ?", model.StatusDelivered).
		Count(&stats.TotalSales).Error; err != nil {
		return nil, err
	}
	if err := s.model(ctx, &model.Order{}, "orders").
		Where("orders.status = ?", model.StatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}

	revenue, err := s.revenue(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue
	return stats, nil
}

// revenue sums total_amount over the tenant's orders
func (s *Scope) revenue(ctx context.Context) (decimal.Decimal, error) {
	rows, err := s.model(ctx, &model.Order{}, "orders").Select("orders.total_amount").Rows()
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var total decimal.Decimal
		if err := rows.Scan(&total); err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(total)
	}
	return sum, rows.Err()
}
