package admin

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/testutil"
	"go.uber.org/zap"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, Migrate(db, zap.NewNop()))
	assert.True(t, db.Migrator().HasTable(&model.OrderItem{}))
}

func TestTenantReport(t *testing.T) {
	db := testutil.NewDB(t)
	acme := testutil.Tenant(t, db, "acme")
	globex := testutil.Tenant(t, db, "globex")
	testutil.Product(t, db, acme, "Soap", "10.00", 5)
	testutil.Product(t, db, acme, "Balm", "4.00", 1)
	testutil.Client(t, db, globex, "Alice", "0600000000")

	cat := testutil.Category(t, db, acme, "Loose")
	require.NoError(t, db.Create(&model.Product{CategoryID: cat.ID, Name: "Orphan", Price: decimal.NewFromInt(1)}).Error)
	require.NoError(t, db.Create(&model.User{Username: "drifter", Email: "d@example.com", Password: "x"}).Error)

	report, err := TenantReport(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, report.Tenants, 2)

	assert.Equal(t, "acme", report.Tenants[0].Tenant.Name)
	assert.Equal(t, int64(2), report.Tenants[0].Counts["products"])
	assert.Equal(t, int64(3), report.Tenants[0].Counts["categories"])
	assert.Equal(t, int64(0), report.Tenants[0].Counts["clients"])
	assert.Equal(t, int64(1), report.Tenants[1].Counts["clients"])
	assert.Equal(t, int64(1), report.Orphans["products"])
	assert.Equal(t, int64(1), report.UsersWithoutTenant)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf))
	assert.Contains(t, buf.String(), "globex.example.com")
	assert.Contains(t, buf.String(), "(no tenant)")
	assert.Contains(t, buf.String(), "users without tenant: 1")
}
