// Package unscoped reads tenant-scoped tables across every tenant.
//
// It sits under internal/admin/internal so only the admin package can
// import it; request handlers must go through store.Scope instead.
package unscoped

import (
	"context"

	"github.com/suteetoe/backoffice/internal/model"
	"gorm.io/gorm"
)

// ScopedTables lists the tables whose rows belong to a tenant
var ScopedTables = []string{"categories", "products", "clients", "orders"}

// Store is an unfiltered accessor
type Store struct {
	db *gorm.DB
}

// New returns an unfiltered accessor
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tenants returns every tenant ordered by id
func (s *Store) Tenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := s.db.WithContext(ctx).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

type tenantCount struct {
	TenantID uint
	Count    int64
}

// CountByTenant returns the number of rows of table per tenant id
func (s *Store) CountByTenant(ctx context.Context, table string) (map[uint]int64, error) {
	var rows []tenantCount
	err := s.db.WithContext(ctx).Table(table).
		Select("tenant_id, COUNT(*) AS count").
		Where("tenant_id IS NOT NULL").
		Group("tenant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.TenantID] = r.Count
	}
	return counts, nil
}

// CountOrphans returns the number of rows of table without tenant
func (s *Store) CountOrphans(ctx context.Context, table string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Table(table).Where("tenant_id IS NULL").Count(&count).Error
	return count, err
}

// UsersWithoutTenant returns the number of principals that cannot reach any data
func (s *Store) UsersWithoutTenant(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id IS NULL").Count(&count).Error
	return count, err
}
