package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a subdomain resolution is reused.
const DefaultCacheTTL = time.Minute

// Cache remembers subdomain to tenant id resolutions.
type Cache interface {
	Get(ctx context.Context, subdomain string) (uuid.UUID, bool, error)
	Put(ctx context.Context, subdomain string, tenantID uuid.UUID) error
}

// DefaultMemoryCacheSize caps the entries a MemoryCache holds.
const DefaultMemoryCacheSize = 4096

// MemoryCache is a per-process TTL cache holding at most maxEntries resolutions.
type MemoryCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	mu         sync.RWMutex
	items      map[string]cacheItem
}

type cacheItem struct {
	tenantID  uuid.UUID
	expiresAt time.Time
}

// MemoryCacheOption customizes a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithMaxEntries overrides DefaultMemoryCacheSize. Non-positive values are ignored.
func WithMaxEntries(n int) MemoryCacheOption {
	return func(c *MemoryCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func NewMemoryCache(ttl time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &MemoryCache{ttl: ttl, maxEntries: DefaultMemoryCacheSize, now: time.Now, items: make(map[string]cacheItem)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, subdomain string) (uuid.UUID, bool, error) {
	c.mu.RLock()
	item, ok := c.items[subdomain]
	c.mu.RUnlock()
	if !ok || !c.now().Before(item.expiresAt) {
		return uuid.Nil, false, nil
	}
	return item.tenantID, true, nil
}

// Put stores a resolution. When the cache is full it first drops expired entries and then,
// if still full, the entry closest to expiry.
func (c *MemoryCache) Put(_ context.Context, subdomain string, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.items[subdomain]; !ok && len(c.items) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.items[subdomain] = cacheItem{tenantID: tenantID, expiresAt: now.Add(c.ttl)}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
			continue
		}
		if oldestKey == "" || item.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = key, item.expiresAt
		}
	}
	if len(c.items) >= c.maxEntries && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// RedisCache shares resolutions across API replicas.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if client == nil {
		panic("tenant middleware: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl, prefix: "storefront:tenant:subdomain"}
}

func (c *RedisCache) Get(ctx context.Context, subdomain string) (uuid.UUID, bool, error) {
	raw, err := c.client.Get(ctx, c.key(subdomain)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("cached tenant id for %q: %w", subdomain, err)
	}
	return tenantID, true, nil
}

func (c *RedisCache) Put(ctx context.Context, subdomain string, tenantID uuid.UUID) error {
	return c.client.Set(ctx, c.key(subdomain), tenantID.String(), c.ttl).Err()
}

func (c *RedisCache) key(subdomain string) string {
	return fmt.Sprintf("%s:%s", c.prefix, subdomain)
}
