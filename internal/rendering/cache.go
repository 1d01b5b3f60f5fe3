package rendering

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonathan/keyword-blog/internal/logger"
	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Store persists highlighted content by cache key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Cache memoizes HighlightTerms by content hash and term-set hash. Identical
// concurrent requests share one computation.
type Cache struct {
	store   Store
	group   singleflight.Group
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewCache creates a Cache over store. log and m may be nil.
func NewCache(store Store, log *logger.Logger, m *metrics.Metrics) *Cache {
	return &Cache{store: store, log: logger.OrNop(log), metrics: m}
}

// Highlight returns HighlightTerms(content, phrases, words), served from the
// store when possible. Store failures fall back to computing the result.
func (c *Cache) Highlight(ctx context.Context, content string, phrases, words []string) (string, error) {
	key := CacheKey(content, phrases, words)

	if cached, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("highlight cache read failed", "key", key, "error", err)
	} else if ok {
		c.metrics.ObserveHighlightCache(true)
		return cached, nil
	}
	c.metrics.ObserveHighlightCache(false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		highlighted := HighlightTerms(content, phrases, words)
		if err := c.store.Set(ctx, key, highlighted); err != nil {
			c.log.Warn("highlight cache write failed", "key", key, "error", err)
		}
		return highlighted, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CacheKey hashes the content and the ordered term lists.
func CacheKey(content string, phrases, words []string) string {
	contentSum := sha256.Sum256([]byte(content))

	h := sha256.New()
	for _, p := range phrases {
		h.Write([]byte("p\x00" + p + "\x00"))
	}
	for _, w := range words {
		h.Write([]byte("w\x00" + w + "\x00"))
	}
	return hex.EncodeToString(contentSum[:]) + ":" + hex.EncodeToString(h.Sum(nil))
}

// DefaultMemoryCapacity is the MemoryStore size used when none is given.
const DefaultMemoryCapacity = 256

// MemoryStore is a bounded in-process Store that evicts the least recently
// used entry and, when ttl is positive, entries older than ttl.
type MemoryStore struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryStore creates a MemoryStore holding at most capacity entries.
// A ttl of zero keeps entries until they are evicted.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{lru: expirable.NewLRU[string, string](capacity, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s.lru.Get(key)
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.lru.Add(key, value)
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

// RedisStore keeps highlighted content in Redis with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. Keys are prefixed with "highlight:".
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "highlight:", ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read highlight cache: %w", err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write highlight cache: %w", err)
	}
	return nil
}
