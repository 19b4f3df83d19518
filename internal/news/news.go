// Package news aggregates regulatory and fintech RSS feeds into a single
// article list for the back-office news page.
package news

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/pkg/cache"
)

const cacheKey = "news:articles"

type Article struct {
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	PublishedDate *time.Time `json:"publishedDate"`
	Description   string     `json:"description"`
	Source        string     `json:"source"`
}

type System interface {
	Handler() *Handler
	// Articles returns the articles of every reachable feed, newest first.
	Articles(ctx context.Context) ([]Article, error)
}

type aggregator struct {
	feeds   []string
	timeout time.Duration
	ttl     time.Duration
	client  *http.Client
	cache   cache.System
	policy  *bluemonday.Policy
	logger  *slog.Logger
}

// New creates a news System. client may be nil to use http.DefaultClient.
func New(cfg *config.NewsConfig, store cache.System, client *http.Client, logger *slog.Logger) System {
	if client == nil {
		client = http.DefaultClient
	}
	return &aggregator{
		feeds:   cfg.Feeds,
		timeout: cfg.TimeoutDuration(),
		ttl:     cfg.CacheTTLDuration(),
		client:  client,
		cache:   store,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger.With("system", "news"),
	}
}

func (a *aggregator) Handler() *Handler {
	return NewHandler(a, a.logger)
}

func (a *aggregator) Articles(ctx context.Context) ([]Article, error) {
	cached, ok, err := cache.GetJSON[[]Article](ctx, a.cache, cacheKey)
	if err != nil {
		a.logger.Warn("news cache read failed", "error", err)
	}
	if ok {
		return cached, nil
	}

	results := make([][]Article, len(a.feeds))

	var g errgroup.Group
	for i, url := range a.feeds {
		g.Go(func() error {
			items, err := a.fetch(ctx, url)
			if err != nil {
				a.logger.Warn("feed fetch failed", "url", url, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	g.Wait()

	articles := slices.Concat(results...)
	slices.SortStableFunc(articles, newestFirst)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, a.cache, cacheKey, articles, a.ttl); err != nil {
		a.logger.Warn("news cache write failed", "error", err)
	}

	return articles, nil
}

func (a *aggregator) fetch(ctx context.Context, url string) ([]Article, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = a.client

	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, Article{
			Title:         strings.TrimSpace(item.Title),
			Link:          item.Link,
			PublishedDate: item.PublishedParsed,
			Description:   a.describe(item.Description),
			Source:        feed.Title,
		})
	}
	return articles, nil
}

// describe reduces an HTML description to the plain text of its first
// paragraph, or of the whole description when it has none.
func (a *aggregator) describe(raw string) string {
	fragment := raw
	if p := firstParagraph(raw); p != "" {
		fragment = p
	}
	text := html.UnescapeString(a.policy.Sanitize(fragment))
	return strings.Join(strings.Fields(text), " ")
}

func firstParagraph(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	for n := range doc.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			var b strings.Builder
			if err := html.Render(&b, n); err != nil {
				return ""
			}
			return b.String()
		}
	}
	return ""
}

func newestFirst(a, b Article) int {
	switch {
	case a.PublishedDate == nil && b.PublishedDate == nil:
		return 0
	case a.PublishedDate == nil:
		return 1
	case b.PublishedDate == nil:
		return -1
	}
	return b.PublishedDate.Compare(*a.PublishedDate)
}
