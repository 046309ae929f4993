// Package news fetches and filters news items about an instrument.
package news

import (
	"context"
	"sort"
	"time"
)

// Item is one news article.
type Item struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Provider fetches news matching query, most recent first, at most limit items.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int) ([]Item, error)
}

// FilterRecent keeps items published within window before now. Items
// without a publication time are kept.
func FilterRecent(items []Item, window time.Duration, now time.Time) []Item {
	cutoff := now.Add(-window)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.PublishedAt.IsZero() || !it.PublishedAt.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out
}

// SortNewestFirst orders items by publication time, newest first.
// Items without a time sort last, keeping their relative order.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})
}

// Truncate returns at most limit items; limit <= 0 means no limit.
func Truncate(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
