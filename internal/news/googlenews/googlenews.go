// Package googlenews fetches news from the Google News RSS search feed.
package googlenews

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/news"
)

const (
	defaultBaseURL = "https://news.google.com/rss/search"
	sourceName     = "Google News"
)

// Config holds feed parameters. Zero values select the Indian English edition
// and a 48 hour window.
type Config struct {
	BaseURL     string
	QuerySuffix string
	Language    string
	Country     string
	Window      time.Duration
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.QuerySuffix == "" {
		c.QuerySuffix = "stock India"
	}
	if c.Language == "" {
		c.Language = "en-IN"
	}
	if c.Country == "" {
		c.Country = "IN"
	}
	if c.Window <= 0 {
		c.Window = 48 * time.Hour
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// GoogleNews implements news.Provider.
type GoogleNews struct {
	cfg    Config
	client *http.Client
	parser *gofeed.Parser
	now    func() time.Time
}

// New creates a Google News provider.
func New(cfg Config) *GoogleNews {
	cfg = cfg.withDefaults()
	return &GoogleNews{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// Name returns the provider name.
func (g *GoogleNews) Name() string {
	return "googlenews"
}

func (g *GoogleNews) feedURL(query string) string {
	q := strings.TrimSpace(query + " " + g.cfg.QuerySuffix)
	lang := strings.SplitN(g.cfg.Language, "-", 2)[0]

	v := url.Values{}
	v.Set("q", q)
	v.Set("hl", g.cfg.Language)
	v.Set("gl", g.cfg.Country)
	v.Set("ceid", g.cfg.Country+":"+lang)
	return g.cfg.BaseURL + "?" + v.Encode()
}

// Fetch returns items about query published within the window, newest first.
func (g *GoogleNews) Fetch(ctx context.Context, query string, limit int) ([]news.Item, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.WrapError(core.ErrNewsFailed, fmt.Errorf("query cannot be empty"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.feedURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; insight/1.0)")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.WrapError(core.ErrRateLimited, fmt.Errorf("google news returned 429"))
	case resp.StatusCode != http.StatusOK:
		return nil, core.WrapError(core.ErrNewsFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	feed, err := g.parser.Parse(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrNewsFailed, fmt.Errorf("parsing feed: %w", err))
	}

	items := make([]news.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || entry.Title == "" {
			continue
		}

		it := news.Item{
			Title:       strings.TrimSpace(entry.Title),
			Description: plainText(entry.Description),
			Link:        entry.Link,
			Source:      sourceName,
		}
		if it.Description == "" {
			it.Description = it.Title
		}
		switch {
		case entry.PublishedParsed != nil:
			it.PublishedAt = entry.PublishedParsed.UTC()
		case entry.UpdatedParsed != nil:
			it.PublishedAt = entry.UpdatedParsed.UTC()
		default:
			continue // undated entries cannot be windowed
		}
		items = append(items, it)
	}

	items = news.FilterRecent(items, g.cfg.Window, g.now())
	news.SortNewestFirst(items)
	return news.Truncate(items, limit), nil
}

// plainText flattens the HTML snippets Google puts in descriptions.
func plainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
