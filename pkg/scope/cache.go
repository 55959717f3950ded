package scope

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kubev2v/relcore/pkg/container"
)

// Cache shares resolutions between resolvers with equal cache keys under the same
// policy. Concurrent misses on the same key resolve once.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Resolution
	group   singleflight.Group
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Resolution)}
}

func (c *Cache) IDs(ctx context.Context, r *Resolver) (Resolution, error) {
	key := policyID(r.env.Policy) + "|" + r.CacheKey()

	c.mu.RLock()
	res, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return res, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := r.IDs(ctx)
		if err != nil {
			return Resolution{}, err
		}
		c.mu.Lock()
		c.entries[key] = res
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return Resolution{}, err
	}
	return v.(Resolution), nil
}

// Invalidate forgets the entries stored under a resolver cache key, for every policy.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasSuffix(k, "|"+key) {
			delete(c.entries, k)
		}
	}
}

// Clear drops every entry, typically after the container tree or grants change.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Resolution)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func policyID(p container.Policy) string {
	if v := reflect.ValueOf(p); v.Kind() == reflect.Pointer {
		return fmt.Sprintf("%T@%x", p, v.Pointer())
	}
	return fmt.Sprintf("%T", p)
}
