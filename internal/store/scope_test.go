package store

import (
	"context"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/tenancy"
	"github.com/suteetoe/backoffice/internal/testutil"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	t1, t2 *model.Tenant
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	f := &fixture{
		db: db,
		t1: testutil.Tenant(t, db, "acme"),
		t2: testutil.Tenant(t, db, "globex"),
	}

	for _, tenant := range []*model.Tenant{f.t1, f.t2} {
		p := testutil.Product(t, db, tenant, "Soap", "10.00", 5)
		c := testutil.Client(t, db, tenant, "Alice "+tenant.Name, "0600000000")
		order := &model.Order{
			TenantID:     &tenant.ID,
			ClientID:     c.ID,
			DeliveryMode: model.DeliveryPickup,
			Status:       model.StatusPending,
			TotalAmount:  decimal.RequireFromString("10.00"),
		}
		require.NoError(t, db.Create(order).Error)
		require.NoError(t, db.Create(&model.OrderItem{
			OrderID: order.ID, ProductID: p.ID, Quantity: 1, Price: p.Price,
		}).Error)
	}
	return f
}

func TestScopedReadsNeverCrossTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	products, err := s1.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, f.t1.ID, *products[0].TenantID)

	categories, err := s1.ListCategories(ctx)
	require.NoError(t, err)
	for _, c := range categories {
		assert.Equal(t, f.t1.ID, *c.TenantID)
	}

	clients, err := s1.ListClients(ctx, false)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Alice acme", clients[0].Name)

	page, err := s1.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, f.t1.ID, *page.Orders[0].TenantID)
	assert.True(t, decimal.RequireFromString("10").Equal(page.TotalRevenue))
}

func TestOtherTenantsRowsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	var foreign model.Product
	require.NoError(t, f.db.Where("tenant_id = ?", f.t2.ID).First(&foreign).Error)

	_, err := s1.GetProduct(ctx, foreign.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = s1.DeleteProduct(ctx, foreign.ID)
	assert.True(t, apperror.IsNotFound(err))

	ok, err := s1.DecrementStock(ctx, foreign.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5, testutil.Stock(t, f.db, foreign.ID))
}

func TestScopeWithoutTenantFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, s := range map[string]*Scope{
		"nil tenant":    NewScope(f.db, nil),
		"empty context": ForContext(ctx, f.db),
		"cleared":       ForContext(tenancy.Clear(tenancy.WithTenant(ctx, f.t1)), f.db),
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, s.HasTenant())

			products, err := s.ListProducts(ctx, ProductFilter{})
			require.NoError(t, err)
			assert.Empty(t, products)

			clients, err := s.ListClients(ctx, true)
			require.NoError(t, err)
			assert.Empty(t, clients)

			page, err := s.ListOrders(ctx, OrderFilter{})
			require.NoError(t, err)
			assert.Empty(t, page.Orders)
			assert.Zero(t, page.TotalCount)

			stats, err := s.Dashboard(ctx)
			require.NoError(t, err)
			assert.Zero(t, stats.TotalProducts)
			assert.True(t, stats.TotalRevenue.IsZero())

			err = s.CreateCategory(ctx, &model.Category{Name: "Orphan"})
			assert.True(t, apperror.IsValidation(err))
			assert.Equal(t, apperror.CodeTenantRequired, apperror.CodeOf(err))

			err = s.Transaction(ctx, func(*Scope) error { return nil })
			assert.Equal(t, apperror.CodeTenantRequired, apperror.CodeOf(err))
		})
	}
}

func TestUnstampedRowsAreInvisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := testutil.Category(t, f.db, f.t1, "Loose")
	require.NoError(t, f.db.Create(&model.Product{
		CategoryID: cat.ID, Name: "Orphan", Price: decimal.NewFromInt(1), Stock: 1,
	}).Error)

	products, err := NewScope(f.db, f.t1).ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	for _, p := range products {
		assert.NotEqual(t, "Orphan", p.Name)
	}
}

func TestWritesMustCarryTheScopesTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	err := s1.CreateCategory(ctx, &model.Category{Name: "Unstamped"})
	assert.Equal(t, apperror.CodeTenantMismatch, apperror.CodeOf(err))

	err = s1.CreateClient(ctx, &model.Client{TenantID: &f.t2.ID, Name: "Bob", Phone: "0700000000"})
	assert.Equal(t, apperror.CodeTenantMismatch, apperror.CodeOf(err))

	c := &model.Category{TenantID: &f.t1.ID, Name: "Skin care"}
	require.NoError(t, s1.CreateCategory(ctx, c))
	assert.NotZero(t, c.ID)
}

func TestUniquenessIsPerTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	err := s1.CreateClient(ctx, &model.Client{TenantID: &f.t1.ID, Name: "Copy", Phone: "0600000000"})
	assert.ErrorIs(t, err, ErrClientPhone)
	assert.Equal(t, "0600000000", err.(*apperror.Error).Params["Phone"])

	cat := testutil.Category(t, f.db, f.t1, "Hair")
	err = s1.CreateProduct(ctx, &model.Product{
		TenantID: &f.t1.ID, CategoryID: cat.ID, Name: "Soap", Price: decimal.NewFromInt(3),
	})
	assert.ErrorIs(t, err, ErrProductTaken)
	assert.True(t, apperror.IsConflict(err))

	// globex's category is not visible to acme
	var foreignCat model.Category
	require.NoError(t, f.db.Where("tenant_id = ?", f.t2.ID).First(&foreignCat).Error)
	err = s1.CreateProduct(ctx, &model.Product{
		TenantID: &f.t1.ID, CategoryID: foreignCat.ID, Name: "Shampoo", Price: decimal.NewFromInt(3),
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	products, err := s1.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	p := products[0]
	p.Category = nil
	p.Price = decimal.RequireFromString("12.50")
	p.Stock = 9
	require.NoError(t, s1.UpdateProduct(ctx, &p))

	got, err := s1.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Price))
	assert.Equal(t, 9, got.Stock)

	p.Stock = -1
	assert.True(t, apperror.IsValidation(s1.UpdateProduct(ctx, &p)))

	// amounts the decimal(10,2) column would round are refused
	p.Stock = 9
	p.Price = decimal.RequireFromString("0.335")
	assert.Equal(t, "invalid_price", apperror.CodeOf(s1.UpdateProduct(ctx, &p)))

	tenantID := f.t1.ID
	err = s1.CreateProduct(ctx, &model.Product{
		TenantID: &tenantID, CategoryID: p.CategoryID, Name: "Lotion", Price: decimal.RequireFromString("0.335"),
	})
	assert.Equal(t, "invalid_price", apperror.CodeOf(err))

	got, err = s1.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Price))
}

func TestDeletionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	products, err := s1.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	p := products[0]

	assert.ErrorIs(t, s1.DeleteCategory(ctx, p.CategoryID), ErrCategoryInUse)
	assert.ErrorIs(t, s1.DeleteProduct(ctx, p.ID), ErrProductReferenced)

	clients, err := s1.ListClients(ctx, false)
	require.NoError(t, err)
	assert.ErrorIs(t, s1.DeleteClient(ctx, clients[0].ID), ErrClientHasOrder)

	spare := testutil.Client(t, f.db, f.t1, "Spare", "0611111111")
	require.NoError(t, s1.DeleteClient(ctx, spare.ID))
	_, err = s1.GetClient(ctx, spare.ID)
	assert.ErrorIs(t, err, ErrClientNotFound)

	empty := testutil.Category(t, f.db, f.t1, "Empty")
	require.NoError(t, s1.DeleteCategory(ctx, empty.ID))
}

func TestDecrementStockIsGuarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)
	p := testutil.Product(t, f.db, f.t1, "Lotion", "4.00", 2)

	ok, err := s1.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, testutil.Stock(t, f.db, p.ID))

	ok, err = s1.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, testutil.Stock(t, f.db, p.ID))

	require.NoError(t, s1.RestoreStock(ctx, p.ID, 2))
	assert.Equal(t, 2, testutil.Stock(t, f.db, p.ID))
}

func TestAvailableProductsAreInStockByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)
	testutil.Product(t, f.db, f.t1, "Argan oil", "8.00", 3)
	testutil.Product(t, f.db, f.t1, "Balm", "2.00", 0)

	products, err := s1.ListProducts(ctx, ProductFilter{InStock: true})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Argan oil", products[0].Name)
	assert.Equal(t, "Soap", products[1].Name)
}

func TestListOrdersSearchAndPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)
	bob := testutil.Client(t, f.db, f.t1, "Bob Martin", "0712345678")

	for i := 0; i < 25; i++ {
		status := model.StatusPending
		if i%5 == 0 {
			status = model.StatusDelivered
		}
		require.NoError(t, f.db.Create(&model.Order{
			TenantID:     &f.t1.ID,
			ClientID:     bob.ID,
			DeliveryMode: model.DeliveryHome,
			Status:       status,
			TotalAmount:  decimal.NewFromInt(2),
		}).Error)
	}

	page, err := s1.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(26), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Orders, DefaultPageSize)
	assert.NotNil(t, page.Orders[0].Client)
	assert.True(t, decimal.NewFromInt(60).Equal(page.TotalRevenue))

	page, err = s1.ListOrders(ctx, OrderFilter{Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Orders, 6)

	page, err = s1.ListOrders(ctx, OrderFilter{Search: "martin"})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalCount)

	page, err = s1.ListOrders(ctx, OrderFilter{Search: "12345"})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalCount)

	page, err = s1.ListOrders(ctx, OrderFilter{Search: "bob", Status: model.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalCount)

	page, err = s1.ListOrders(ctx, OrderFilter{DeliveryMode: model.DeliveryPickup})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)

	pickup := page.Orders[0]
	page, err = s1.ListOrders(ctx, OrderFilter{
		Search:       strconv.FormatUint(uint64(pickup.ID), 10),
		DeliveryMode: model.DeliveryPickup,
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, pickup.ID, page.Orders[0].ID)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	page, err := s1.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.NoError(t, s1.SetOrderStatus(ctx, page.Orders[0].ID, model.StatusDelivered))

	stats, err := s1.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.TotalClients)
	assert.Equal(t, int64(1), stats.TotalSales)
	assert.Equal(t, int64(0), stats.PendingOrders)
	assert.True(t, decimal.RequireFromString("10.00").Equal(stats.TotalRevenue))
}

func TestGetOrderLoadsItemsAndClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := NewScope(f.db, f.t1)

	page, err := s1.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)

	order, err := s1.GetOrder(ctx, page.Orders[0].ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Soap", order.Items[0].Product.Name)
	assert.Equal(t, "Alice acme", order.Client.Name)

	_, err = NewScope(f.db, f.t2).GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, NewScope(f.db, f.t2).SetOrderStatus(ctx, order.ID, model.StatusDelivered), ErrOrderNotFound)
}
