package crawler

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StatusProber fetches a URL and reports the HTTP status it answered with.
// *Fetcher implements it.
type StatusProber interface {
	Probe(ctx context.Context, url string) (int, error)
}

// linkStatus is one memoized probe result. ok is false when the request failed.
type linkStatus struct {
	code int
	ok   bool
}

// StatusCache memoizes link statuses for the lifetime of a run.
// Each distinct URL is probed at most once, even when many goroutines ask
// for it at the same time. Entries are never replaced or removed.
type StatusCache struct {
	prober StatusProber
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]linkStatus
	hits    int64
	misses  int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewStatusCache creates an empty cache that probes through prober.
func NewStatusCache(prober StatusProber) *StatusCache {
	return &StatusCache{
		prober:  prober,
		entries: make(map[string]linkStatus),
	}
}

// Resolve returns the status of url, probing it on first use.
// ok is false when the probe failed at the transport level.
// A probe interrupted by ctx is not memoized.
func (c *StatusCache) Resolve(ctx context.Context, url string) (int, bool) {
	if status, found := c.lookup(url); found {
		c.recordHit()
		return status.code, status.ok
	}

	v, _, _ := c.group.Do(url, func() (any, error) {
		// A flight that finished between lookup and Do has already stored
		// the entry, so look again before probing.
		if status, found := c.lookup(url); found {
			c.recordHit()
			return status, nil
		}

		code, err := c.prober.Probe(ctx, url)
		status := linkStatus{code: code, ok: err == nil}
		if err != nil && ctx.Err() != nil {
			return status, nil
		}

		c.mu.Lock()
		c.entries[url] = status
		c.misses++
		c.mu.Unlock()
		return status, nil
	})

	status, _ := v.(linkStatus) //nolint:errcheck
	return status.code, status.ok
}

// Len returns the number of memoized URLs.
func (c *StatusCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the cache counters. Callers that joined an in-flight probe
// count as neither hit nor miss.
func (c *StatusCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}

func (c *StatusCache) lookup(url string) (linkStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, found := c.entries[url]
	return status, found
}

func (c *StatusCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}
