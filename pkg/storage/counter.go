package storage

import (
	"context"
	"sync"
	"time"
)

// WindowCounter is a process-local fixed-window counter. It backs rate limits
// when no redis connection is configured.
type WindowCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]counterEntry
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// NewWindowCounter returns an empty counter. A nil now uses time.Now.
func NewWindowCounter(now func() time.Time) *WindowCounter {
	if now == nil {
		now = time.Now
	}
	return &WindowCounter{now: now, entries: make(map[string]counterEntry)}
}

// IncrWithTTL increments key, starting a fresh window when the previous one expired.
func (c *WindowCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.entries[key]
	if !ok || (!entry.expiresAt.IsZero() && !now.Before(entry.expiresAt)) {
		entry = counterEntry{}
		if ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
	}
	entry.count++
	c.entries[key] = entry
	return entry.count, nil
}

// Sweep drops expired windows and returns how many were removed.
func (c *WindowCounter) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
