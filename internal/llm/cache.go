package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultGenerationTTL bounds how long a cached generation is reused.
	DefaultGenerationTTL = time.Hour

	// Generations at or above this temperature are never cached.
	cacheTemperatureCeiling = 0.3

	cacheKeyPrefix = "llm:gen:"
)

// Cache stores generated text by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis from a redis:// URL and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// Get returns the cached value, if present.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value for ttl.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is an in-process Cache, used when Redis is not configured.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-process cache.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Get returns the cached value, if present.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

// Set stores value for ttl.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// CachedGenerator serves low-temperature generations from a cache.
// Cache errors never fail a generation.
type CachedGenerator struct {
	name  string
	next  Generator
	cache Cache
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedGenerator wraps next. name keeps tiers from sharing keys.
func NewCachedGenerator(name string, next Generator, cache Cache, ttl time.Duration) *CachedGenerator {
	if ttl <= 0 {
		ttl = DefaultGenerationTTL
	}
	return &CachedGenerator{name: name, next: next, cache: cache, ttl: ttl}
}

// Generate returns a cached response when possible.
func (g *CachedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.cache == nil || req.Temperature >= cacheTemperatureCeiling {
		return g.next.Generate(ctx, req)
	}

	key := g.key(req)
	if cached, ok, err := g.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("cache", g.name).Msg("Cache read error")
	} else if ok {
		g.hits.Add(1)
		return cached, nil
	}

	g.misses.Add(1)
	text, err := g.next.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	if req.Cacheable != nil && !req.Cacheable(text) {
		log.Debug().Str("cache", g.name).Msg("Response rejected, not cached")
		return text, nil
	}
	if err := g.cache.Set(ctx, key, text, g.ttl); err != nil {
		log.Warn().Err(err).Str("cache", g.name).Msg("Cache write error")
	}
	return text, nil
}

// Stats returns hit/miss counters.
func (g *CachedGenerator) Stats() CacheStats {
	hits, misses := g.hits.Load(), g.misses.Load()
	stats := CacheStats{Name: g.name, Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

func (g *CachedGenerator) key(req Request) string {
	payload, _ := json.Marshal(struct {
		Tier        string  `json:"tier"`
		System      string  `json:"system"`
		Prompt      string  `json:"prompt"`
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}{g.name, req.SystemPrompt, req.Prompt, req.Model, req.Temperature, req.MaxTokens})

	sum := sha256.Sum256(payload)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
