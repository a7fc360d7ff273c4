package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// TTLCache is a bounded LRU cache whose entries also expire after a fixed TTL.
type TTLCache[K comparable, V any] struct {
	lru *lru.Cache[K, cacheItem[V]]
	ttl time.Duration
	now func() time.Time
}

// NewTTLCache creates a cache holding at most size entries for ttl each.
func NewTTLCache[K comparable, V any](size int, ttl time.Duration) *TTLCache[K, V] {
	l, err := lru.New[K, cacheItem[V]](size)
	if err != nil {
		// only fails for a non-positive size
		log.Fatal().Err(err).Int("size", size).Msg("Failed to create LRU cache")
	}
	return &TTLCache[K, V]{lru: l, ttl: ttl, now: time.Now}
}

// Set 设置缓存
func (c *TTLCache[K, V]) Set(key K, data V) {
	c.lru.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	val, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}

	// 检查过期
	if c.now().After(val.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}

	return val.data, true
}

// Delete 删除指定缓存
func (c *TTLCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

func (c *TTLCache[K, V]) Len() int {
	return c.lru.Len()
}
