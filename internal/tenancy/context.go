// Package tenancy carries the current tenant through a request.
//
// The tenant lives in the request's context.Context, so it is scoped to one
// in-flight request and disappears with it. A context without tenant, or
// with an explicitly cleared tenant, means "no tenant": scoped data access
// built from it returns nothing.
package tenancy

import (
	"context"

	"github.com/suteetoe/backoffice/internal/model"
)

type tenantKey struct{}

// WithTenant returns a copy of ctx whose current tenant is t. A nil t
// clears the tenant for everything derived from the returned context.
func WithTenant(ctx context.Context, t *model.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// Clear returns a copy of ctx with no current tenant
func Clear(ctx context.Context) context.Context {
	return WithTenant(ctx, nil)
}

// FromContext returns the current tenant, if any
func FromContext(ctx context.Context) (*model.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*model.Tenant)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}
