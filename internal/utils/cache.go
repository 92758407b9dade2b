package utils

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a bounded, goroutine-safe memo. It is meant to live for one
// request; nothing here survives across requests.
type Cache[V any] struct {
	lruCache *lru.Cache[string, V]
}

// NewCache creates a cache holding at most size entries (minimum 1).
func NewCache[V any](size int) *Cache[V] {
	if size < 1 {
		size = 1
	}
	l, err := lru.New[string, V](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Cache[V]{lruCache: l}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lruCache.Get(key)
}

func (c *Cache[V]) Set(key string, v V) {
	c.lruCache.Add(key, v)
}

func (c *Cache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.lruCache.Len()
}
