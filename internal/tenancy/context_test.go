package tenancy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/internal/model"
)

func TestEmptyContextHasNoTenant(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestWithTenantAndClear(t *testing.T) {
	acme := &model.Tenant{ID: 4, Name: "acme"}

	ctx := WithTenant(context.Background(), acme)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, acme, got)
	assert.Equal(t, uint(4), got.ID)

	cleared := Clear(ctx)
	_, ok = FromContext(cleared)
	assert.False(t, ok)

	// the parent context is unaffected
	_, ok = FromContext(ctx)
	assert.True(t, ok)
}

func TestNilTenantMeansNone(t *testing.T) {
	ctx := WithTenant(context.Background(), nil)
	_, ok := FromContext(ctx)
	assert.False(t, ok)
}

func TestConcurrentRequestsDoNotShareTenant(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	for i := uint(1); i <= 50; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			ctx := WithTenant(base, &model.Tenant{ID: id})
			got, ok := FromContext(ctx)
			if assert.True(t, ok) {
				assert.Equal(t, id, got.ID)
			}
		}(i)
	}
	wg.Wait()

	_, ok := FromContext(base)
	assert.False(t, ok)
}
