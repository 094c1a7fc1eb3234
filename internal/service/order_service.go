// Package service implements the back-office operations on top of the
// tenant-scoped store.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/cache"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/logger"
	"github.com/suteetoe/backoffice/pkg/metrics"
	"go.uber.org/zap"
)

// LineItem is one requested order line
type LineItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderInput is the full content of an order for create and update.
// Validated by the service, not by struct tags.
type OrderInput struct {
	ClientID     uint               `json:"client_id"`
	DeliveryMode model.DeliveryMode `json:"delivery_mode"`
	DeliveryFee  decimal.Decimal    `json:"delivery_fee"`
	Items        []LineItem         `json:"items"`
}

// OrderService creates, replaces and deletes orders together with the
// stock they consume. Every operation runs in one transaction.
type OrderService struct {
	dashboard   cache.Dashboard
	metrics     *metrics.Business
	forwardOnly bool
}

// NewOrderService returns an order service. With forwardOnly set, status
// changes may only move pending -> in_progress -> delivered.
func NewOrderService(dashboard cache.Dashboard, m *metrics.Business, forwardOnly bool) *OrderService {
	if dashboard == nil {
		dashboard = cache.Noop{}
	}
	return &OrderService{dashboard: dashboard, metrics: m, forwardOnly: forwardOnly}
}

func (in *OrderInput) validate() error {
	if in.ClientID == 0 {
		return apperror.Validation("client_required", "client is required")
	}
	if len(in.Items) == 0 {
		return apperror.Validation("items_required", "at least one item is required")
	}
	for _, item := range in.Items {
		if item.ProductID == 0 {
			return apperror.Validation(apperror.CodeInvalidInput, "product is required").With("Reason", "product_id")
		}
		if item.Quantity <= 0 {
			return apperror.Validation("invalid_quantity", "quantity must be greater than zero").
				With("Product", item.ProductID)
		}
	}
	if in.DeliveryMode == "" {
		in.DeliveryMode = model.DeliveryPickup
	}
	if !in.DeliveryMode.Valid() {
		return apperror.Validation("invalid_delivery_mode", "unknown delivery mode").
			With("Mode", string(in.DeliveryMode))
	}
	if !model.ValidAmount(in.DeliveryFee) {
		return apperror.Validation("invalid_delivery_fee", "delivery fee must not be negative and have at most 2 decimals")
	}
	return nil
}

// Create records a new pending order, decrementing stock for every line.
// Nothing is written if any line fails.
func (s *OrderService) Create(ctx context.Context, scope *store.Scope, in OrderInput) (*model.Order, error) {
	defer s.metrics.TrackDBOperation("order_create")(time.Now())

	var orderID uint
	err := s.run(ctx, scope, "create", &in, func(tx *store.Scope, tenantID uint) error {
		client, err := tx.GetClient(ctx, in.ClientID)
		if err != nil {
			return err
		}

		order := &model.Order{
			TenantID:     &tenantID,
			ClientID:     client.ID,
			DeliveryMode: in.DeliveryMode,
			DeliveryFee:  in.DeliveryFee,
			Status:       model.StatusPending,
			TotalAmount:  decimal.Zero,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		subtotal, err := s.applyItems(ctx, tx, order, in.Items)
		if err != nil {
			return err
		}
		order.TotalAmount = subtotal.Add(order.DeliveryFee)
		orderID = order.ID
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Order created", zap.Uint("order_id", orderID))
	return scope.GetOrder(ctx, orderID)
}

// Update replaces the client, delivery and lines of an order. Stock taken
// by the old lines is returned before the new lines are applied; the
// status is kept.
func (s *OrderService) Update(ctx context.Context, scope *store.Scope, orderID uint, in OrderInput) (*model.Order, error) {
	defer s.metrics.TrackDBOperation("order_update")(time.Now())

	err := s.run(ctx, scope, "update", &in, func(tx *store.Scope, _ uint) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		client, err := tx.GetClient(ctx, in.ClientID)
		if err != nil {
			return err
		}

		if err := restoreItems(ctx, tx, order); err != nil {
			return err
		}
		if err := tx.DeleteOrderItems(ctx, order); err != nil {
			return err
		}

		order.Items = nil
		order.ClientID = client.ID
		order.DeliveryMode = in.DeliveryMode
		order.DeliveryFee = in.DeliveryFee

		subtotal, err := s.applyItems(ctx, tx, order, in.Items)
		if err != nil {
			return err
		}
		order.TotalAmount = subtotal.Add(order.DeliveryFee)
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Order updated", zap.Uint("order_id", orderID))
	return scope.GetOrder(ctx, orderID)
}

// Delete removes an order and puts the stock of its lines back
func (s *OrderService) Delete(ctx context.Context, scope *store.Scope, orderID uint) error {
	defer s.metrics.TrackDBOperation("order_delete")(time.Now())

	err := s.run(ctx, scope, "delete", nil, func(tx *store.Scope, _ uint) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := restoreItems(ctx, tx, order); err != nil {
			return err
		}
		if err := tx.DeleteOrderItems(ctx, order); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, order)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Order deleted", zap.Uint("order_id", orderID))
	return nil
}

// UpdateStatus moves an order to status
func (s *OrderService) UpdateStatus(ctx context.Context, scope *store.Scope, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		err := apperror.Validation("invalid_status", "unknown order status").With("Status", string(status))
		s.metrics.RecordOrderOperation("status", err)
		return nil, err
	}

	err := s.run(ctx, scope, "status", nil, func(tx *store.Scope, _ uint) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if s.forwardOnly && status.Before(order.Status) {
			return apperror.Validation("status_regression", "order status cannot move backwards").
				With("From", string(order.Status)).
				With("To", string(status))
		}
		return tx.SetOrderStatus(ctx, order.ID, status)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Order status updated",
		zap.Uint("order_id", orderID),
		zap.String("status", string(status)))
	return scope.GetOrder(ctx, orderID)
}

// run validates in, executes fn in a transaction and records the outcome
func (s *OrderService) run(ctx context.Context, scope *store.Scope, op string, in *OrderInput, fn func(tx *store.Scope, tenantID uint) error) (err error) {
	log := logger.FromContext(ctx)
	defer func() {
		s.metrics.RecordOrderOperation(op, err)
		if err != nil {
			log.Warn("Order operation failed",
				zap.String("operation", op),
				zap.String("kind", apperror.KindOf(err).String()),
				zap.Error(err))
		}
	}()

	if in != nil {
		if err := in.validate(); err != nil {
			return err
		}
	}

	tenantID, ok := scope.TenantID()
	if !ok {
		return apperror.Validation(apperror.CodeTenantRequired, "no tenant is associated with this request")
	}

	if err := scope.Transaction(ctx, func(tx *store.Scope) error {
		return fn(tx, tenantID)
	}); err != nil {
		return err
	}

	if err := s.dashboard.Invalidate(ctx, tenantID); err != nil {
		log.Warn("Failed to invalidate dashboard cache", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
	return nil
}

// applyItems locks each product, takes its stock and records the line with
// the current price. It returns the sum of the line subtotals.
func (s *OrderService) applyItems(ctx context.Context, tx *store.Scope, order *model.Order, items []LineItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range items {
		product, err := tx.LockProduct(ctx, line.ProductID)
		if err != nil {
			return decimal.Zero, err
		}

		ok, err := tx.DecrementStock(ctx, product.ID, line.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			s.metrics.RecordInsufficientStock()
			return decimal.Zero, apperror.InsufficientStock(product.Name, product.Stock, line.Quantity)
		}

		item := &model.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		}
		if err := tx.AddOrderItem(ctx, order, item); err != nil {
			return decimal.Zero, err
		}
		order.Items = append(order.Items, *item)
		total = total.Add(item.Subtotal())
	}
	return total, nil
}

func restoreItems(ctx context.Context, tx *store.Scope, order *model.Order) error {
	for _, item := range order.Items {
		if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
