package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func titles(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestFilterRecent(t *testing.T) {
	items := []Item{
		{Title: "fresh", PublishedAt: now.Add(-time.Hour)},
		{Title: "edge", PublishedAt: now.Add(-48 * time.Hour)},
		{Title: "stale", PublishedAt: now.Add(-49 * time.Hour)},
		{Title: "undated"},
	}

	got := FilterRecent(items, 48*time.Hour, now)
	assert.Equal(t, []string{"fresh", "edge", "undated"}, titles(got))
}

func TestSortNewestFirst(t *testing.T) {
	items := []Item{
		{Title: "undated"},
		{Title: "old", PublishedAt: now.Add(-10 * time.Hour)},
		{Title: "new", PublishedAt: now.Add(-time.Hour)},
		{Title: "mid", PublishedAt: now.Add(-5 * time.Hour)},
	}

	SortNewestFirst(items)
	assert.Equal(t, []string{"new", "mid", "old", "undated"}, titles(items))
}

func TestTruncate(t *testing.T) {
	items := []Item{{Title: "a"}, {Title: "b"}, {Title: "c"}}

	assert.Len(t, Truncate(items, 2), 2)
	assert.Len(t, Truncate(items, 5), 3)
	assert.Len(t, Truncate(items, 0), 3)
}

func TestStaticProvider_Fetch(t *testing.T) {
	items := []Item{
		{Title: "Reliance rises", PublishedAt: now.Add(-2 * time.Hour)},
		{Title: "Old Reliance news", PublishedAt: now.Add(-30 * 24 * time.Hour)},
		{Title: "TCS wins deal", PublishedAt: now.Add(-time.Hour)},
		{Title: "Markets", Description: "reliance leads gains", PublishedAt: now.Add(-time.Hour)},
	}

	p := NewStaticProvider(items, 48*time.Hour)
	p.now = func() time.Time { return now }

	got, err := p.Fetch(context.Background(), "Reliance", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Markets", "Reliance rises"}, titles(got))

	got, err = p.Fetch(context.Background(), "reliance", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Fetch(ctx context.Context, query string, limit int) ([]Item, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []Item{{Title: query}}, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, 30*time.Minute)
	clock := now
	p.now = func() time.Time { return clock }
	ctx := context.Background()

	p.Fetch(ctx, "Infosys", 15)
	p.Fetch(ctx, "Infosys", 15)
	assert.Equal(t, 1, inner.calls, "second fetch should hit the cache")

	p.Fetch(ctx, "Infosys", 5)
	assert.Equal(t, 2, inner.calls, "limit is part of the key")

	clock = clock.Add(31 * time.Minute)
	p.Fetch(ctx, "Infosys", 15)
	assert.Equal(t, 3, inner.calls, "expired entry should refetch")
	assert.Equal(t, "counting", p.Name())
}

func TestCachedProvider_DoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{err: errors.New("down")}
	p := NewCachedProvider(inner, time.Hour)
	ctx := context.Background()

	_, err := p.Fetch(ctx, "Infosys", 15)
	assert.Error(t, err)

	inner.err = nil
	items, err := p.Fetch(ctx, "Infosys", 15)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, inner.calls)
}
