package gate

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/tbourn/moneywise/internal/observability"
)

type cacheKey struct {
	userID string
	prompt string
	// fp1 and fp2 are the halves of a murmur3 128-bit digest of the
	// JSON-encoded payload. Not collision resistant: two payloads sharing a
	// digest share an entry.
	fp1, fp2 uint64
}

type cacheEntry struct {
	result    string
	createdAt time.Time
}

// Cache stores analysis results keyed by user, exact prompt and a fingerprint
// of the data payload. Entries expire ttl after creation. Expired entries are
// dropped when looked up, and Set sweeps all of them once the map grows past
// the sweep threshold. There is no hard size cap.
//
// This type is safe for concurrent use; concurrent Sets for one key keep the
// last write.
type Cache struct {
	ttl            time.Duration
	sweepThreshold int
	now            func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

// NewCache returns a cache with the given TTL and sweep threshold.
// Non-positive values fall back to one hour and 1000 entries.
func NewCache(ttl time.Duration, sweepThreshold int) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if sweepThreshold <= 0 {
		sweepThreshold = 1000
	}
	return &Cache{
		ttl:            ttl,
		sweepThreshold: sweepThreshold,
		now:            time.Now,
		entries:        make(map[cacheKey]cacheEntry),
	}
}

// Fingerprint returns the payload digest used in cache keys. The payload is
// JSON-encoded first, so map keys are ordered but slice order matters.
func Fingerprint(data any) (uint64, uint64, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return 0, 0, err
	}
	h1, h2 := murmur3.Sum128(raw)
	return h1, h2, nil
}

func (c *Cache) key(userID, prompt string, data any) (cacheKey, error) {
	h1, h2, err := Fingerprint(data)
	if err != nil {
		return cacheKey{}, err
	}
	return cacheKey{userID: userID, prompt: prompt, fp1: h1, fp2: h2}, nil
}

// Get returns the cached result and true when a live entry exists.
// A payload that cannot be encoded is reported as a miss.
func (c *Cache) Get(userID, prompt string, data any) (string, bool) {
	k, err := c.key(userID, prompt, data)
	if err != nil {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return "", false
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return "", false
	}
	if now.Sub(e.createdAt) >= c.ttl {
		delete(c.entries, k)
		observability.CacheEntries.Set(float64(len(c.entries)))
		observability.CacheLookups.WithLabelValues("expired").Inc()
		return "", false
	}
	observability.CacheLookups.WithLabelValues("hit").Inc()
	return e.result, true
}

// Set stores result, replacing any previous entry for the same key.
func (c *Cache) Set(userID, prompt string, data any, result string) error {
	k, err := c.key(userID, prompt, data)
	if err != nil {
		return err
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = cacheEntry{result: result, createdAt: now}
	if len(c.entries) > c.sweepThreshold {
		for key, e := range c.entries {
			if now.Sub(e.createdAt) >= c.ttl {
				delete(c.entries, key)
			}
		}
	}
	observability.CacheEntries.Set(float64(len(c.entries)))
	return nil
}

// size returns the number of stored entries, expired ones included.
func (c *Cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
