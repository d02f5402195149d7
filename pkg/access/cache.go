package access

import (
	"sync"
	"time"

	"github.com/rfpgate/rfpgate/pkg/auth"
)

// DefaultCacheTTL is the default time-to-live for cached decisions. The
// window bounds how long a just-approved NDA may still read as denied.
const DefaultCacheTTL = 5 * time.Second

// Decider is the decision surface shared by Engine and CachedEngine.
type Decider interface {
	CanAccessDocument(actor auth.Actor, documentID string) (Decision, error)
	CanAccessRFP(actor auth.Actor, rfpID string) (Decision, error)
}

// maxCacheEntries caps the decision cache. An insert at the cap first
// evicts expired entries; if every entry is still live the cache is
// reset so it never outgrows the cap.
const maxCacheEntries = 4096

type cacheEntry struct {
	decision  Decision
	expiresAt time.Time
}

// CachedEngine wraps a Decider with a short-lived in-memory cache keyed
// by (actor, target). Errors are never cached and the cache is
// size-bounded.
type CachedEngine struct {
	inner      Decider
	ttl        time.Duration
	maxEntries int
	mu         sync.RWMutex
	cache      map[string]cacheEntry
}

// NewCachedEngine creates a CachedEngine that wraps inner with the given
// TTL. A non-positive TTL falls back to DefaultCacheTTL.
func NewCachedEngine(inner Decider, ttl time.Duration) *CachedEngine {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedEngine{
		inner:      inner,
		ttl:        ttl,
		maxEntries: maxCacheEntries,
		cache:      make(map[string]cacheEntry),
	}
}

// CanAccessDocument checks the cache first and delegates to the inner
// engine on miss.
func (c *CachedEngine) CanAccessDocument(actor auth.Actor, documentID string) (Decision, error) {
	return c.decide("doc", actor, documentID, c.inner.CanAccessDocument)
}

// CanAccessRFP checks the cache first and delegates to the inner engine
// on miss.
func (c *CachedEngine) CanAccessRFP(actor auth.Actor, rfpID string) (Decision, error) {
	return c.decide("rfp", actor, rfpID, c.inner.CanAccessRFP)
}

func (c *CachedEngine) decide(kind string, actor auth.Actor, targetID string, fn func(auth.Actor, string) (Decision, error)) (Decision, error) {
	key := cacheKey(kind, actor, targetID)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return entry.decision, nil
	}

	decision, err := fn(actor, targetID)
	if err != nil {
		return Decision{}, err
	}

	c.mu.Lock()
	if len(c.cache) >= c.maxEntries {
		c.evictExpiredLocked(time.Now())
		if len(c.cache) >= c.maxEntries {
			c.cache = make(map[string]cacheEntry)
		}
	}
	c.cache[key] = cacheEntry{
		decision:  decision,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return decision, nil
}

// evictExpiredLocked removes entries whose TTL has passed. The caller
// holds the write lock.
func (c *CachedEngine) evictExpiredLocked(now time.Time) {
	for key, entry := range c.cache {
		if !now.Before(entry.expiresAt) {
			delete(c.cache, key)
		}
	}
}

// Invalidate drops every cached decision. Lifecycle callers use it to
// make a fresh transition visible immediately instead of after the TTL.
func (c *CachedEngine) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// cacheKey builds a deterministic cache key from the actor and target.
func cacheKey(kind string, actor auth.Actor, targetID string) string {
	return kind + ":" + actor.UserID + ":" + string(actor.Role) + ":" +
		actor.CompanyID + ":" + string(actor.CompanyRole) + ":" + targetID
}
