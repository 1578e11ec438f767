package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached resolution for one normalized host. Misses are
// cached too (Found=false) so unknown hosts don't hammer the store.
type Entry struct {
	TenantID uuid.UUID
	Found    bool
}

// LoadFunc consults the store. found=false with a nil error is a
// legitimate negative answer and gets cached.
type LoadFunc func(ctx context.Context) (tenantID uuid.UUID, found bool, err error)

// HostCache is the read-through cache in front of the tenant store.
// Staleness is bounded by the TTL; UpdateDomain calls Invalidate to cut
// the wait after a settings change.
type HostCache struct {
	entries *expirable.LRU[string, Entry]
	group   singleflight.Group
}

func NewHostCache(size int, ttl time.Duration) *HostCache {
	return &HostCache{
		entries: expirable.NewLRU[string, Entry](size, nil, ttl),
	}
}

// GetOrLoad returns the cached entry for host or loads it once,
// collapsing concurrent misses for the same host into a single store
// query. Load errors are returned uncached, the next request retries.
func (c *HostCache) GetOrLoad(ctx context.Context, host string, load LoadFunc) (Entry, error) {
	if entry, ok := c.entries.Get(host); ok {
		return entry, nil
	}

	result, err, _ := c.group.Do(host, func() (any, error) {
		if entry, ok := c.entries.Get(host); ok {
			return entry, nil
		}
		tenantID, found, err := load(ctx)
		if err != nil {
			return Entry{}, err
		}
		entry := Entry{TenantID: tenantID, Found: found}
		c.entries.Add(host, entry)
		return entry, nil
	})
	if err != nil {
		return Entry{}, err
	}

	return result.(Entry), nil
}

func (c *HostCache) Invalidate(hosts ...string) {
	for _, host := range hosts {
		if host != "" {
			c.entries.Remove(host)
		}
	}
}

func (c *HostCache) Len() int {
	return c.entries.Len()
}
