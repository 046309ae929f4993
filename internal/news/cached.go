package news

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CachedProvider wraps a provider with a per-query TTL cache.
type CachedProvider struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cache   map[string][]Item
	cacheAt map[string]time.Time
}

// NewCachedProvider creates a cached news provider.
func NewCachedProvider(provider Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string][]Item),
		cacheAt:  make(map[string]time.Time),
	}
}

// Name returns the wrapped provider's name.
func (p *CachedProvider) Name() string {
	return p.provider.Name()
}

// Fetch returns cached news or fetches from the underlying provider.
// Failed fetches are not cached.
func (p *CachedProvider) Fetch(ctx context.Context, query string, limit int) ([]Item, error) {
	key := fmt.Sprintf("%s|%d", query, limit)

	p.mu.Lock()
	cached, ok := p.cache[key]
	fresh := ok && p.now().Sub(p.cacheAt[key]) < p.ttl
	p.mu.Unlock()
	if fresh {
		return cached, nil
	}

	items, err := p.provider.Fetch(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = items
	p.cacheAt[key] = p.now()
	p.mu.Unlock()
	return items, nil
}
