// Package testutil provides database fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database private to t
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// Tenant inserts a tenant named name
func Tenant(t testing.TB, db *gorm.DB, name string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: name, Domain: name + ".example.com"}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// Category inserts a category owned by tenant
func Category(t testing.TB, db *gorm.DB, tenant *model.Tenant, name string) *model.Category {
	t.Helper()
	c := &model.Category{TenantID: &tenant.ID, Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Product inserts a product owned by tenant in a fresh category
func Product(t testing.TB, db *gorm.DB, tenant *model.Tenant, name, price string, stock int) *model.Product {
	t.Helper()
	cat := Category(t, db, tenant, name+" category")
	p := &model.Product{
		TenantID:   &tenant.ID,
		CategoryID: cat.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Client inserts a client owned by tenant
func Client(t testing.TB, db *gorm.DB, tenant *model.Tenant, name, phone string) *model.Client {
	t.Helper()
	c := &model.Client{TenantID: &tenant.ID, Name: name, Phone: phone, Area: "Centre"}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Stock reloads the current stock of product id
func Stock(t testing.TB, db *gorm.DB, id uint) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}
