// Package store holds the data accessors used while serving requests.
//
// Scope is the only way request code reaches tenant-scoped tables. It is
// built once per request for one tenant and filters every read by that
// tenant. A Scope without tenant fails closed: reads return empty results
// and writes are rejected. Scope never stamps a tenant on a row; callers set
// TenantID explicitly and Scope refuses rows stamped for another tenant.
//
// Cross-tenant access lives in internal/admin and is not importable from here.
package store

import (
	"context"
	"errors"

	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/tenancy"
	"gorm.io/gorm"
)

// DefaultPageSize is the number of orders per listing page
const DefaultPageSize = 20

// Scope is a tenant-filtered data accessor
type Scope struct {
	db       *gorm.DB
	tenantID *uint
}

// NewScope returns an accessor bound to tenant. A nil tenant yields an
// accessor that sees nothing.
func NewScope(db *gorm.DB, tenant *model.Tenant) *Scope {
	s := &Scope{db: db}
	if tenant != nil {
		id := tenant.ID
		s.tenantID = &id
	}
	return s
}

// ForContext returns an accessor bound to the tenant carried by ctx
func ForContext(ctx context.Context, db *gorm.DB) *Scope {
	t, _ := tenancy.FromContext(ctx)
	return NewScope(db, t)
}

// TenantID returns the scope's tenant id
func (s *Scope) TenantID() (uint, bool) {
	if s == nil || s.tenantID == nil {
		return 0, false
	}
	return *s.tenantID, true
}

// HasTenant reports whether the scope is bound to a tenant
func (s *Scope) HasTenant() bool {
	_, ok := s.TenantID()
	return ok
}

// Transaction runs fn with a scope bound to a single database transaction.
// Any error returned by fn rolls the transaction back.
func (s *Scope) Transaction(ctx context.Context, fn func(tx *Scope) error) error {
	if !s.HasTenant() {
		return errTenantRequired
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Scope{db: tx, tenantID: s.tenantID})
	})
}

// model returns a query on value's table filtered by the scope's tenant
func (s *Scope) model(ctx context.Context, value interface{}, table string) *gorm.DB {
	return s.filter(s.db.WithContext(ctx).Model(value), table)
}

// filter restricts db to the scope's tenant, or to nothing without one
func (s *Scope) filter(db *gorm.DB, table string) *gorm.DB {
	if s.tenantID == nil {
		return db.Where("1 = 0")
	}
	return db.Where(table+".tenant_id = ?", *s.tenantID)
}

var (
	errTenantRequired = apperror.Validation(apperror.CodeTenantRequired, "no tenant is associated with this request")
	errTenantMismatch = apperror.Validation(apperror.CodeTenantMismatch, "row is not stamped with the current tenant")
)

// checkStamp verifies row carries this scope's tenant
func (s *Scope) checkStamp(row model.TenantOwned) error {
	id, ok := s.TenantID()
	if !ok {
		return errTenantRequired
	}
	owner := row.OwnerTenantID()
	if owner == nil || *owner != id {
		return errTenantMismatch
	}
	return nil
}

// first loads one row or returns notFound
func first(q *gorm.DB, dest interface{}, notFound *apperror.Error) error {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// duplicate maps a unique violation to conflict, leaving other errors as is
func duplicate(err error, conflict *apperror.Error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict.Wrap(err)
	}
	return err
}
