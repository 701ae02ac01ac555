package server

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/metrics"
	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

// minCacheSizeMB keeps the per-entry limit (1/1024 of the cache) above the
// size of a full program document.
const minCacheSizeMB = 16

// cacheTTLSeconds bounds how long a calculated document is kept.
const cacheTTLSeconds = 3600

// CalcCache keeps serialized engine output keyed by the input document and
// the pattern table versions. The engine is deterministic, so a hit is
// byte-identical to a fresh calculation.
type CalcCache struct {
	cache   *freecache.Cache
	metrics *metrics.Manager
}

// NewCalcCache creates a cache of sizeMB megabytes, at least 16. m may be nil.
func NewCalcCache(sizeMB int, m *metrics.Manager) *CalcCache {
	sizeMB = max(sizeMB, minCacheSizeMB)
	return &CalcCache{cache: freecache.NewCache(sizeMB * megabyte), metrics: m}
}

// cacheKey hashes the input. Map keys marshal sorted, so equal documents
// produce equal keys.
func cacheKey(in engine.Input) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding input: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", engine.VolumePatternsVersion, engine.SessionPatternsVersion)
	h.Write(data)
	return h.Sum(nil), nil
}

// Get returns the cached document for key.
func (c *CalcCache) Get(key []byte) ([]byte, bool) {
	data, err := c.cache.Get(key)
	if err != nil {
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.CounterCacheHits.Inc()
	}
	return data, true
}

// Set stores a document. A rejected entry is counted and returned; the
// caller still has the calculated document.
func (c *CalcCache) Set(key, data []byte) error {
	if err := c.cache.Set(key, data, cacheTTLSeconds); err != nil {
		if c.metrics != nil {
			c.metrics.CounterCacheRejected.Inc()
		}
		return fmt.Errorf("caching %d bytes: %w", len(data), err)
	}
	return nil
}

// Len returns the number of cached documents.
func (c *CalcCache) Len() int64 {
	return c.cache.EntryCount()
}
