package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-backend/internal/model"
)

const (
	productsKey      = "catalog:products"
	categoriesKey    = "catalog:categories"
	productKeyPrefix = "catalog:product:"
)

func productKey(id int) string { return fmt.Sprintf("%s%d", productKeyPrefix, id) }

// Cache is a Redis read-through cache in front of a Source. Redis failures
// are logged and the wrapped source is used directly. Upstream errors are
// never cached.
type Cache struct {
	rdb    *redis.Client
	src    Source
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache returns a read-through cache over src whose entries live for ttl.
func NewCache(rdb *redis.Client, src Source, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{rdb: rdb, src: src, ttl: ttl, logger: logger}
}

// ListProducts serves the product list from Redis, filling it from src on a miss.
func (c *Cache) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if c.lookup(ctx, productsKey, &products) {
		return products, nil
	}
	products, err := c.src.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, productsKey, products)
	return products, nil
}

// GetProduct caches found products only, so a product that appears upstream
// later is not hidden behind a cached miss.
func (c *Cache) GetProduct(ctx context.Context, id int) (model.Product, bool, error) {
	var p model.Product
	if c.lookup(ctx, productKey(id), &p) {
		return p, true, nil
	}
	p, found, err := c.src.GetProduct(ctx, id)
	if err != nil || !found {
		return p, found, err
	}
	c.store(ctx, productKey(id), p)
	return p, true, nil
}

// ListByCategory filters the cached product list.
func (c *Cache) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return byCategory(products, category), nil
}

// ListCategories serves the category list from Redis, filling it from src on a miss.
func (c *Cache) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if c.lookup(ctx, categoriesKey, &categories) {
		return categories, nil
	}
	categories, err := c.src.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, categoriesKey, categories)
	return categories, nil
}

// Invalidate drops every cached catalog key.
func (c *Cache) Invalidate(ctx context.Context) error {
	keys := []string{productsKey, categoriesKey}
	// redis/go-redis/v9: SCAN walks per-product keys without blocking the server the way KEYS would.
	iter := c.rdb.Scan(ctx, 0, productKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog keys: %w", err)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete catalog keys: %w", err)
	}
	c.logger.Info("catalog: cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

func (c *Cache) lookup(ctx context.Context, key string, dst any) bool {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("catalog: cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("catalog: cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("catalog: cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	// redis/go-redis/v9: SET with expiry; the TTL bounds staleness when no invalidation arrives.
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog: cache write failed", zap.String("key", key), zap.Error(err))
	}
}
