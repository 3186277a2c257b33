package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/observability/metrics"
	"github.com/dcamposl/inventario/internal/product/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// ListCache keeps recent list responses. Implementations must treat their own
// failures as misses; the caller always has the store to fall back on.
type ListCache interface {
	Get(ctx context.Context, query domain.ListQuery) (domain.ListResult, error)
	Set(ctx context.Context, query domain.ListQuery, result domain.ListResult) error
	Invalidate(ctx context.Context) error
}

const versionKey = "inventario:products:ver"

// RedisListCache stores pages under a namespace version. Invalidation bumps
// the version, orphaning every cached page at once; orphans expire via TTL.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisListCache(addr, password string, db int, ttl time.Duration, log *logger.Logger) (*RedisListCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisListCache{client: client, ttl: ttl, log: log}, nil
}

func (c *RedisListCache) Get(ctx context.Context, query domain.ListQuery) (domain.ListResult, error) {
	key, err := c.pageKey(ctx, query)
	if err != nil {
		return domain.ListResult{}, ErrCacheMiss
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("list cache get failed: %v", err)
		}
		metrics.ListCacheMisses.Inc()
		return domain.ListResult{}, ErrCacheMiss
	}

	var result domain.ListResult
	if err := json.Unmarshal(payload, &result); err != nil {
		c.log.Warnf("list cache decode failed: %v", err)
		metrics.ListCacheMisses.Inc()
		return domain.ListResult{}, ErrCacheMiss
	}

	metrics.ListCacheHits.Inc()
	return result, nil
}

func (c *RedisListCache) Set(ctx context.Context, query domain.ListQuery, result domain.ListResult) error {
	key, err := c.pageKey(ctx, query)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warnf("list cache set failed: %v", err)
		return err
	}
	return nil
}

func (c *RedisListCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		c.log.Warnf("list cache invalidate failed: %v", err)
		return err
	}
	return nil
}

func (c *RedisListCache) Close() error {
	return c.client.Close()
}

func (c *RedisListCache) pageKey(ctx context.Context, query domain.ListQuery) (string, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}

	minQ := "-"
	if query.MinQuantity != nil {
		minQ = fmt.Sprintf("%d", *query.MinQuantity)
	}

	return fmt.Sprintf("inventario:products:v%d:list:%d:%d:%s:%s",
		ver, query.Page, query.Limit, query.Search, minQ), nil
}
