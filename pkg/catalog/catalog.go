// Package catalog looks up application descriptors for content paths, caching
// results in front of the persistent store.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/morezero/content-actions/pkg/actions"
)

const logPrefix = "catalog:catalog"

const (
	DefaultExpiration      = time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// Source is the backing store of application descriptors.
type Source interface {
	// GetApplication returns the descriptor named name that is nearest to
	// contentPath in the ancestor chain, or nil if there is none.
	GetApplication(ctx context.Context, contentPath, name string) (*actions.Application, error)
	// ListApplications returns every descriptor in scope for contentPath,
	// nearest first, one per name.
	ListApplications(ctx context.Context, contentPath string) ([]actions.Application, error)
}

// Cached is a Source that memoizes lookups, including misses.
type Cached struct {
	source Source
	cache  *gocache.Cache
}

var _ Source = (*Cached)(nil)

// NewCached wraps source with a TTL cache. A non-positive ttl uses
// DefaultExpiration.
func NewCached(source Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &Cached{
		source: source,
		cache:  gocache.New(ttl, DefaultCleanupInterval),
	}
}

func appKey(contentPath, name string) string {
	return "app:" + contentPath + "|" + name
}

func listKey(contentPath string) string {
	return "list:" + contentPath
}

// GetApplication returns a cached descriptor or loads it from the source.
func (c *Cached) GetApplication(ctx context.Context, contentPath, name string) (*actions.Application, error) {
	key := appKey(contentPath, name)
	if v, found := c.cache.Get(key); found {
		app, ok := v.(*actions.Application)
		if ok {
			slog.Debug(fmt.Sprintf("%s - cache hit %s", logPrefix, key))
			return app, nil
		}
		slog.Error(fmt.Sprintf("%s - unexpected cache entry type %T for %s", logPrefix, v, key))
	}

	app, err := c.source.GetApplication(ctx, contentPath, name)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, app)
	return app, nil
}

// ListApplications returns a cached descriptor list or loads it.
func (c *Cached) ListApplications(ctx context.Context, contentPath string) ([]actions.Application, error) {
	key := listKey(contentPath)
	if v, found := c.cache.Get(key); found {
		if apps, ok := v.([]actions.Application); ok {
			return apps, nil
		}
		slog.Error(fmt.Sprintf("%s - unexpected cache entry type %T for %s", logPrefix, v, key))
	}

	apps, err := c.source.ListApplications(ctx, contentPath)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, apps)
	return apps, nil
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() {
	c.cache.Flush()
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
