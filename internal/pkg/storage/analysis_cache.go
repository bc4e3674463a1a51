package storage

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ AnalysisCache = (*LRUAnalysisCache)(nil)

// LRUAnalysisCache is a bounded in-memory cache: entries expire after ttl and
// the least recently used one is evicted when size is reached.
type LRUAnalysisCache struct {
	lru *expirable.LRU[string, string]
}

func NewLRUAnalysisCache(size int, ttl time.Duration) *LRUAnalysisCache {
	if size <= 0 {
		size = 200
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LRUAnalysisCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *LRUAnalysisCache) Get(key string) (string, bool) { return c.lru.Get(key) }

func (c *LRUAnalysisCache) Add(key, value string) { c.lru.Add(key, value) }

func (c *LRUAnalysisCache) Len() int { return c.lru.Len() }
