package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is the in-process Counter backend, suitable for a single
// instance deployment. Each key gets its own mutex so the increment-and-
// check step is atomic per key without serializing unrelated keys.
type MemoryCounter struct {
	window  time.Duration
	entries sync.Map // map[string]*memEntry

	mu          sync.Mutex
	lastCleanup time.Time
}

type memEntry struct {
	mu   sync.Mutex
	hits []time.Time
}

func NewMemoryCounter(window time.Duration) *MemoryCounter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryCounter{
		window:      window,
		lastCleanup: time.Now(),
	}
}

func (c *MemoryCounter) Window() time.Duration { return c.window }

func (c *MemoryCounter) Incr(
	ctx context.Context,
	key string,
	limit int,
	now time.Time,
) (bool, int, time.Time, error) {
	// Cleanup runs before the entry lock is taken: maybeCleanup acquires
	// every entry mutex in turn, so it must never run while we hold one.
	c.maybeCleanup(now)

	e := c.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Drop hits that have aged out of the trailing window.
	cutoff := now.Add(-c.window)
	kept := e.hits[:0]
	for _, t := range e.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.hits = kept

	allowed := len(e.hits) < limit
	if allowed {
		e.hits = append(e.hits, now)
	}

	var oldest time.Time
	if len(e.hits) > 0 {
		oldest = e.hits[0]
	}

	return allowed, len(e.hits), oldest, nil
}

func (c *MemoryCounter) entry(key string) *memEntry {
	// Fast path: entry already exists
	if e, ok := c.entries.Load(key); ok {
		return e.(*memEntry)
	}

	actual, _ := c.entries.LoadOrStore(key, &memEntry{})
	return actual.(*memEntry)
}

// maybeCleanup drops entries whose hits have all aged out. This prevents
// unbounded growth from ephemeral keys (anonymous IPs in particular). A hit
// recorded concurrently with the delete is lost, which only under-counts
// for one window; the same trade the token-bucket cleanup in pkg/httpx
// makes.
func (c *MemoryCounter) maybeCleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Only cleanup once every 5 minutes
	if now.Sub(c.lastCleanup) < 5*time.Minute {
		return
	}
	c.lastCleanup = now

	cutoff := now.Add(-c.window)
	c.entries.Range(func(key, value any) bool {
		e := value.(*memEntry)
		e.mu.Lock()
		idle := len(e.hits) == 0 || !e.hits[len(e.hits)-1].After(cutoff)
		e.mu.Unlock()

		if idle {
			c.entries.Delete(key)
		}
		return true
	})
}
