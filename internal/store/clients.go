package store

import (
	"context"

	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
)

var (
	ErrClientNotFound = apperror.NotFound("client_not_found", "client not found")
	ErrClientPhone    = apperror.Conflict("client_phone_taken", "a client with this phone number already exists")
	ErrClientHasOrder = apperror.Conflict("client_has_orders", "client still has orders")
)

// ListClients returns the tenant's clients, newest first, or by name when byName is set
func (s *Scope) ListClients(ctx context.Context, byName bool) ([]model.Client, error) {
	q := s.model(ctx, &model.Client{}, "clients")
	if byName {
		q = q.Order("clients.name ASC")
	} else {
		q = q.Order("clients.created_at DESC, clients.id DESC")
	}

	var clients []model.Client
	err := q.Find(&clients).Error
	return clients, err
}

// GetClient returns one of the tenant's clients
func (s *Scope) GetClient(ctx context.Context, id uint) (*model.Client, error) {
	var c model.Client
	q := s.model(ctx, &model.Client{}, "clients").Where("clients.id = ?", id)
	if err := first(q, &c, ErrClientNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a client stamped with the scope's tenant. Phone
// numbers are unique per tenant.
func (s *Scope) CreateClient(ctx context.Context, c *model.Client) error {
	if err := s.checkStamp(c); err != nil {
		return err
	}
	if c.Name == "" || c.Phone == "" {
		return apperror.Validation(apperror.CodeInvalidInput, "client name and phone are required")
	}

	var count int64
	if err := s.model(ctx, &model.Client{}, "clients").
		Where("clients.phone = ?", c.Phone).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrClientPhone.With("Phone", c.Phone)
	}

	return duplicate(s.db.WithContext(ctx).Create(c).Error, ErrClientPhone.With("Phone", c.Phone))
}

// DeleteClient removes a client without orders
func (s *Scope) DeleteClient(ctx context.Context, id uint) error {
	c, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.model(ctx, &model.Order{}, "orders").
		Where("orders.client_id = ?", c.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrClientHasOrder.With("Count", count)
	}

	return s.model(ctx, &model.Client{}, "clients").
		Where("clients.id = ?", c.ID).
		Delete(&model.Client{}).Error
}
