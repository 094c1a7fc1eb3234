package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/internal/tenancy"
	dbtest "github.com/suteetoe/backoffice/internal/testutil"
	"github.com/suteetoe/backoffice/pkg/config"
	"github.com/suteetoe/backoffice/pkg/jwtutil"
	"github.com/suteetoe/backoffice/pkg/metrics"
	"gorm.io/gorm"
)

func newContext(e *echo.Echo) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func assertCleared(t *testing.T, c echo.Context) {
	t.Helper()
	assert.Nil(t, c.Get(ScopeKey))
	_, ok := tenancy.FromContext(c.Request().Context())
	assert.False(t, ok)
}

type tenantFixture struct {
	db     *gorm.DB
	tenant *model.Tenant
	mw     echo.MiddlewareFunc
	reg    *prometheus.Registry
}

func newTenantFixture(t *testing.T) *tenantFixture {
	db := dbtest.NewDB(t)
	reg := prometheus.NewRegistry()
	return &tenantFixture{
		db:     db,
		tenant: dbtest.Tenant(t, db, "acme"),
		mw:     TenantMiddleware(db, store.NewAccounts(db), metrics.NewBusiness(reg, "test")),
		reg:    reg,
	}
}

func (f *tenantFixture) claims(tenantID *uint) *jwtutil.UserClaims {
	return &jwtutil.UserClaims{UserID: 1, Username: "alice", TenantID: tenantID}
}

func TestTenantMiddlewareInstallsAndClears(t *testing.T) {
	f := newTenantFixture(t)
	c := newContext(echo.New())
	c.Set(UserKey, f.claims(&f.tenant.ID))

	var seen *model.Tenant
	var scoped bool
	err := f.mw(func(c echo.Context) error {
		seen, _ = tenancy.FromContext(c.Request().Context())
		scope, err := Scope(c)
		require.NoError(t, err)
		id, ok := scope.TenantID()
		scoped = ok && id == f.tenant.ID
		return nil
	})(c)

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, f.tenant.ID, seen.ID)
	assert.True(t, scoped)
	assertCleared(t, c)
}

func TestInstalledScopeFollowsRequestContext(t *testing.T) {
	f := newTenantFixture(t)
	other := dbtest.Tenant(t, f.db, "globex")
	missing := uint(999)

	for name, tenantID := range map[string]*uint{"acme": &f.tenant.ID, "globex": &other.ID, "unknown": &missing, "none": nil} {
		t.Run(name, func(t *testing.T) {
			c := newContext(echo.New())
			c.Set(UserKey, f.claims(tenantID))

			err := f.mw(func(c echo.Context) error {
				scope, err := Scope(c)
				require.NoError(t, err)
				scopeID, scoped := scope.TenantID()

				tenant, ok := tenancy.FromContext(c.Request().Context())
				require.Equal(t, ok, scoped)
				if ok {
					assert.Equal(t, tenant.ID, scopeID)
					assert.Equal(t, *tenantID, scopeID)
				}
				return nil
			})(c)
			require.NoError(t, err)
			assertCleared(t, c)
		})
	}
}

func TestTenantMiddlewareClearsOnError(t *testing.T) {
	f := newTenantFixture(t)
	c := newContext(echo.New())
	c.Set(UserKey, f.claims(&f.tenant.ID))

	boom := errors.New("boom")
	err := f.mw(func(echo.Context) error { return boom })(c)

	assert.ErrorIs(t, err, boom)
	assertCleared(t, c)
}

func TestTenantMiddlewareClearsOnPanic(t *testing.T) {
	f := newTenantFixture(t)
	c := newContext(echo.New())
	c.Set(UserKey, f.claims(&f.tenant.ID))

	assert.Panics(t, func() {
		_ = f.mw(func(echo.Context) error { panic("handler bug") })(c)
	})
	assertCleared(t, c)
}

func TestTenantMiddlewareDropsStaleState(t *testing.T) {
	f := newTenantFixture(t)
	c := newContext(echo.New())

	// leftovers from a previous request on a recycled context
	c.Set(ScopeKey, store.NewScope(f.db, f.tenant))
	c.SetRequest(c.Request().WithContext(tenancy.WithTenant(c.Request().Context(), f.tenant)))

	err := f.mw(func(c echo.Context) error {
		_, ok := tenancy.FromContext(c.Request().Context())
		assert.False(t, ok)
		scope, err := Scope(c)
		require.NoError(t, err)
		assert.False(t, scope.HasTenant())
		return nil
	})(c)
	require.NoError(t, err)
	expected := `# HELP test_tenant_context_missing_total Total number of requests without tenant context
# TYPE test_tenant_context_missing_total counter
test_tenant_context_missing_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "test_tenant_context_missing_total"))
}

func TestTenantMiddlewareUnknownTenant(t *testing.T) {
	f := newTenantFixture(t)
	c := newContext(echo.New())
	missing := uint(999)
	c.Set(UserKey, f.claims(&missing))

	err := f.mw(func(c echo.Context) error {
		scope, err := Scope(c)
		require.NoError(t, err)
		assert.False(t, scope.HasTenant())
		return nil
	})(c)
	require.NoError(t, err)
}

func TestScopeOutsideMiddleware(t *testing.T) {
	_, err := Scope(newContext(echo.New()))
	assert.Equal(t, apperror.CodeTenantRequired, apperror.CodeOf(err))
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})
	tenantID := uint(3)
	token, err := jwt.GenerateToken(7, "alice", "alice@mail.test", &tenantID, "alice")
	require.NoError(t, err)

	mw := JWTAuthMiddleware(jwt)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	cases := map[string]struct {
		header string
		kind   apperror.Kind
		code   string
	}{
		"missing":   {"", apperror.KindUnauthorized, "unauthorized"},
		"malformed": {"Token " + token, apperror.KindUnauthorized, "unauthorized"},
		"invalid":   {"Bearer not-a-token", apperror.KindUnauthorized, "invalid_token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newContext(echo.New())
			if tc.header != "" {
				c.Request().Header.Set("Authorization", tc.header)
			}
			err := mw(ok)(c)
			assert.Equal(t, tc.kind, apperror.KindOf(err))
			assert.Equal(t, tc.code, apperror.CodeOf(err))
		})
	}

	c := newContext(echo.New())
	c.Request().Header.Set("Authorization", "Bearer "+token)
	require.NoError(t, mw(ok)(c))
	claims, found := Claims(c)
	require.True(t, found)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, tenantID, *claims.TenantID)
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	mw := RequestIDMiddleware()

	c := newContext(e)
	require.NoError(t, mw(func(echo.Context) error { return nil })(c))
	generated := c.Response().Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.NotNil(t, c.Get("logger"))

	c = newContext(e)
	c.Request().Header.Set(RequestIDHeader, "abc-123")
	require.NoError(t, mw(func(echo.Context) error { return nil })(c))
	assert.Equal(t, "abc-123", c.Response().Header().Get(RequestIDHeader))
}
