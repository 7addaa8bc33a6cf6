// Package cache is a Redis read-through cache for product lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func InitRedis(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", cfg.Addr))
	return rdb, nil
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

// ProductCache stores products as JSON. Redis failures are logged and treated
// as cache misses; they never fail the caller.
type ProductCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *ProductCache) Get(ctx context.Context, id int) (*models.Product, bool) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache read failed", zap.Int("product_id", id), zap.Error(err))
		}
		return nil, false
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.Int("product_id", id), zap.Error(err))
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.Int("product_id", p.ID), zap.Error(err))
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...int) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", zap.Ints("product_ids", ids), zap.Error(err))
	}
}
