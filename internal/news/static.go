package news

import (
	"context"
	"strings"
	"time"
)

// StaticProvider serves a fixed set of items, matching the query against
// titles and descriptions. Useful for fixtures and offline runs.
type StaticProvider struct {
	items  []Item
	window time.Duration
	now    func() time.Time
}

// NewStaticProvider creates a provider over items. A zero window disables
// the recency filter.
func NewStaticProvider(items []Item, window time.Duration) *StaticProvider {
	return &StaticProvider{items: items, window: window, now: time.Now}
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}

// Fetch returns matching items, newest first.
func (p *StaticProvider) Fetch(ctx context.Context, query string, limit int) ([]Item, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var result []Item

	for _, item := range p.items {
		text := strings.ToLower(item.Title + " " + item.Description)
		if q == "" || strings.Contains(text, q) {
			result = append(result, item)
		}
	}

	if p.window > 0 {
		result = FilterRecent(result, p.window, p.now())
	}
	SortNewestFirst(result)
	return Truncate(result, limit), nil
}
