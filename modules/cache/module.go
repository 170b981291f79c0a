package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-api/config"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis connection used by the task cache.
type Module struct {
	cache  *Cache
	client *redis.Client
	cfg    config.RedisConfig
	logger types.Logger
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the cache module. The client connects lazily; Start verifies it.
func NewModule(cfg config.RedisConfig, logger types.Logger) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &Module{
		cache:  New(client, cfg.Prefix, cfg.TTL),
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

func (m *Module) Name() string {
	return "cache"
}

// Cache returns the cache instance.
func (m *Module) Cache() *Cache {
	return m.cache
}

func (m *Module) Start(ctx context.Context) error {
	if err := m.cache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.cfg.Addr, err)
	}
	m.logger.Info("Connected to Redis", "addr", m.cfg.Addr, "prefix", m.cfg.Prefix, "ttl", m.cfg.TTL)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	m.logger.Info("Redis connection closed")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":  m.cfg.Addr,
			"stats": m.cache.Stats(),
		},
	}
}
