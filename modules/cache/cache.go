package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/guarzo/dotastats/common"
)

// flushEvery is how many accumulated writes trigger an automatic flush.
const flushEvery = 50

// ResponseCache is a durable URL -> JSON response store. Reads that miss,
// or that demand freshness the entry no longer has, go to the upstream API
// through the retrying HTTP client and replace the entry whole.
//
// All access is serialized by one mutex; concurrent unsynchronized flushes
// would break the complete-snapshot guarantee of the backing file.
type ResponseCache struct {
	mu        sync.Mutex
	path      string
	freshness time.Duration
	client    common.HttpClient
	log       *slog.Logger
	now       func() time.Time
	rename    func(oldpath, newpath string) error

	payloads  map[string]json.RawMessage
	fetchedAt map[string]time.Time
	unsaved   int
}

// Open loads the snapshot at path, if one exists, and returns a ready cache.
// A malformed snapshot is fatal: the caller gets a *CorruptError rather than
// a silently emptied store.
func Open(path string, freshness time.Duration, client common.HttpClient, log *slog.Logger) (*ResponseCache, error) {
	c := &ResponseCache{
		path:      path,
		freshness: freshness,
		client:    client,
		log:       log,
		now:       time.Now,
		rename:    os.Rename,
		payloads:  make(map[string]json.RawMessage),
		fetchedAt: make(map[string]time.Time),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the payload for url. A cached entry is served without network
// access when allowStale is true, or when its age is still inside the
// freshness window. Anything else is fetched, stored and returned.
func (c *ResponseCache) Get(ctx context.Context, url string, allowStale bool) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if payload, ok := c.payloads[url]; ok {
		if allowStale || c.now().Sub(c.fetchedAt[url]) < c.freshness {
			cacheHits.Inc()
			return payload, nil
		}
	}
	cacheMisses.Inc()
	return c.fetchLocked(ctx, url)
}

// Fetch always goes to the network, replacing whatever is cached for url.
// Match lists use this: a stale list would hide recent matches.
func (c *ResponseCache) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cacheMisses.Inc()
	return c.fetchLocked(ctx, url)
}

func (c *ResponseCache) fetchLocked(ctx context.Context, url string) (json.RawMessage, error) {
	data, err := c.client.GetWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("upstream returned invalid JSON for %s", url)
	}
	cacheFetches.Inc()

	c.payloads[url] = json.RawMessage(data)
	c.fetchedAt[url] = c.now()
	c.unsaved++
	if c.unsaved%flushEvery == 0 {
		if err := c.flushLocked(); err != nil {
			c.log.Error("auto-flush failed", "error", err)
		}
	}
	return c.payloads[url], nil
}

// Flush persists the whole store atomically. Callers that need a fetched
// value to survive a crash invoke this right after the fetch.
func (c *ResponseCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

// Len reports the number of cached entries.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

// SetNowForTest overrides the clock used for freshness decisions.
func (c *ResponseCache) SetNowForTest(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
