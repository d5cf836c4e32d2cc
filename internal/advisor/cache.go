package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "scheduler:suggestions:"

// Cache - хранилище строк с TTL; miss возвращает ErrCacheMiss
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("cache miss")

// RedisCache - Cache поверх go-redis
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedAdvisor кеширует ответы модели по Request.CacheKey.
// Ошибки кеша не мешают получить ответ, только логируются.
type CachedAdvisor struct {
	next   Advisor
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedAdvisor(next Advisor, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedAdvisor {
	return &CachedAdvisor{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (a *CachedAdvisor) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	if req.CacheKey == "" {
		return a.next.Suggest(ctx, req)
	}
	key := cacheKeyPrefix + req.CacheKey

	raw, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cached []Suggestion
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		a.logger.Warn("Dropping malformed cached suggestions", zap.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		a.logger.Warn("Suggestion cache read failed", zap.Error(err))
	}

	suggestions, err := a.next.Suggest(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(suggestions)
	if err == nil {
		if err := a.cache.Set(ctx, key, string(data), a.ttl); err != nil {
			a.logger.Warn("Suggestion cache write failed", zap.Error(err))
		}
	}

	return suggestions, nil
}
