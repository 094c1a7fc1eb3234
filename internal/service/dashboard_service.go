package service

import (
	"context"
	"time"

	"github.com/suteetoe/backoffice/internal/cache"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/logger"
	"github.com/suteetoe/backoffice/pkg/metrics"
	"go.uber.org/zap"
)

// DashboardService serves per-tenant statistics through the cache
type DashboardService struct {
	cache   cache.Dashboard
	metrics *metrics.Business
}

// NewDashboardService returns a dashboard service
func NewDashboardService(c cache.Dashboard, m *metrics.Business) *DashboardService {
	if c == nil {
		c = cache.Noop{}
	}
	return &DashboardService{cache: c, metrics: m}
}

// Stats returns the scope's statistics. Cache failures fall back to the
// database.
func (s *DashboardService) Stats(ctx context.Context, scope *store.Scope) (*model.DashboardStats, error) {
	log := logger.FromContext(ctx)

	tenantID, ok := scope.TenantID()
	if !ok {
		return scope.Dashboard(ctx)
	}

	stats, hit, err := s.cache.Get(ctx, tenantID)
	if err != nil {
		log.Warn("Dashboard cache read failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
	s.metrics.RecordDashboardCache(hit)
	if hit {
		return stats, nil
	}

	defer s.metrics.TrackDBOperation("dashboard")(time.Now())
	stats, err = scope.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, tenantID, stats); err != nil {
		log.Warn("Dashboard cache write failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
	return stats, nil
}

// Invalidate drops the scope's cached statistics after a catalog change
func (s *DashboardService) Invalidate(ctx context.Context, scope *store.Scope) {
	tenantID, ok := scope.TenantID()
	if !ok {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		logger.FromContext(ctx).Warn("Failed to invalidate dashboard cache",
			zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
}
