package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Business holds back-office domain metrics. A nil *Business records nothing.
type Business struct {
	orderOperations      *prometheus.CounterVec
	insufficientStock    prometheus.Counter
	tenantContextMissing prometheus.Counter
	authAttempts         *prometheus.CounterVec
	dbOperationDuration  *prometheus.HistogramVec
	dashboardCache       *prometheus.CounterVec
}

// NewBusiness creates domain collectors prefixed with prefix and registers them on reg
func NewBusiness(reg prometheus.Registerer, prefix string) *Business {
	b := &Business{
		orderOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_operations_total",
				Help: "Total number of order operations by outcome",
			},
			[]string{"operation", "result"},
		),
		insufficientStock: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_insufficient_stock_total",
				Help: "Total number of order lines rejected for insufficient stock",
			},
		),
		tenantContextMissing: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_tenant_context_missing_total",
				Help: "Total number of requests without tenant context",
			},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of login and registration attempts",
			},
			[]string{"operation", "result"},
		),
		dbOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		dashboardCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_dashboard_cache_total",
				Help: "Dashboard cache lookups by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		b.orderOperations,
		b.insufficientStock,
		b.tenantContextMissing,
		b.authAttempts,
		b.dbOperationDuration,
		b.dashboardCache,
	)
	return b
}

// RecordOrderOperation counts an order create/update/delete/status outcome
func (b *Business) RecordOrderOperation(operation string, err error) {
	if b == nil {
		return
	}
	b.orderOperations.WithLabelValues(operation, result(err)).Inc()
}

// RecordInsufficientStock counts a rejected order line
func (b *Business) RecordInsufficientStock() {
	if b == nil {
		return
	}
	b.insufficientStock.Inc()
}

// RecordTenantContextMissing counts a request served without tenant
func (b *Business) RecordTenantContextMissing() {
	if b == nil {
		return
	}
	b.tenantContextMissing.Inc()
}

// RecordAuthAttempt counts a login or registration outcome
func (b *Business) RecordAuthAttempt(operation string, err error) {
	if b == nil {
		return
	}
	b.authAttempts.WithLabelValues(operation, result(err)).Inc()
}

// RecordDashboardCache counts a cache hit or miss
func (b *Business) RecordDashboardCache(hit bool) {
	if b == nil {
		return
	}
	if hit {
		b.dashboardCache.WithLabelValues("hit").Inc()
		return
	}
	b.dashboardCache.WithLabelValues("miss").Inc()
}

// TrackDBOperation returns a function that records the duration of a database operation
//
//	defer m.TrackDBOperation("order_create")(time.Now())
func (b *Business) TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if b == nil {
			return
		}
		b.dbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
