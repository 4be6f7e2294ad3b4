package listinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrListIDRequired is returned when Get is called without an id.
	ErrListIDRequired = errors.New("listinfo: list id is required")
	// ErrNoFetcher is returned by a cache built without a fetcher.
	ErrNoFetcher = errors.New("listinfo: metadata fetcher not configured")
)

// Fetcher loads raw list metadata from a store.
type Fetcher interface {
	ListMetadata(ctx context.Context, id string) (ListMetadata, error)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger overrides the cache logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache resolves each list id once. Concurrent requests for the same id
// share one fetch; failures are not cached.
type Cache struct {
	fetcher Fetcher
	group   singleflight.Group
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]*ListInfo
}

// NewCache wraps fetcher.
func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		logger:  slog.Default(),
		entries: make(map[string]*ListInfo),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Get returns the resolved list, fetching it on first use.
func (c *Cache) Get(ctx context.Context, id string) (*ListInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrListIDRequired
	}
	if info, ok := c.Cached(id); ok {
		return info, nil
	}
	if c.fetcher == nil {
		return nil, ErrNoFetcher
	}

	result, err, shared := c.group.Do(id, func() (any, error) {
		meta, err := c.fetcher.ListMetadata(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("listinfo: fetch list %q: %w", id, err)
		}
		info := Resolve(meta, c.logger)
		c.mu.Lock()
		c.entries[id] = info
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("list info resolved", slog.String("list", id), slog.Bool("shared", shared))
	return result.(*ListInfo), nil
}

// Cached returns the resolved list without fetching.
func (c *Cache) Cached(id string) (*ListInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.entries[id]
	return info, ok
}

// Forget drops id so the next Get refetches it.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	c.group.Forget(id)
}
