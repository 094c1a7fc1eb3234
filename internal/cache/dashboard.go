// Package cache keeps per-tenant dashboard statistics in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/pkg/config"
	"go.uber.org/zap"
)

// Dashboard caches one tenant's dashboard statistics
type Dashboard interface {
	Get(ctx context.Context, tenantID uint) (*model.DashboardStats, bool, error)
	Set(ctx context.Context, tenantID uint, stats *model.DashboardStats) error
	Invalidate(ctx context.Context, tenantID uint) error
}

// New returns a Redis cache, or a no-op cache when no address is configured
func New(cfg config.RedisConfig, log *zap.Logger) (Dashboard, func() error, error) {
	if cfg.Addr == "" {
		log.Info("Redis address not set, dashboard cache disabled")
		return Noop{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Dashboard cache connected",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.DashboardTTL))
	return NewRedis(client, cfg.KeyPrefix, cfg.DashboardTTL), client.Close, nil
}

// Redis stores statistics as JSON under prefix:dashboard:<tenant id>
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ Dashboard = (*Redis)(nil)

// NewRedis wraps an existing client
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(tenantID uint) string {
	return r.prefix + ":dashboard:" + strconv.FormatUint(uint64(tenantID), 10)
}

// Get returns cached statistics; ok is false on a miss
func (r *Redis) Get(ctx context.Context, tenantID uint) (*model.DashboardStats, bool, error) {
	data, err := r.client.Get(ctx, r.key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var stats model.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, fmt.Errorf("decode dashboard stats: %w", err)
	}
	return &stats, true, nil
}

// Set stores statistics until the TTL expires or Invalidate is called
func (r *Redis) Set(ctx context.Context, tenantID uint, stats *model.DashboardStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(tenantID), data, r.ttl).Err()
}

// Invalidate drops the tenant's cached statistics
func (r *Redis) Invalidate(ctx context.Context, tenantID uint) error {
	return r.client.Del(ctx, r.key(tenantID)).Err()
}

// Noop never caches
type Noop struct{}

func (Noop) Get(context.Context, uint) (*model.DashboardStats, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, uint, *model.DashboardStats) error        { return nil }
func (Noop) Invalidate(context.Context, uint) error                        { return nil }
