package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
	"github.com/bobby-s-dev/weatherstar/pkg/client"
)

const (
	NewsTTL          = 15 * time.Minute
	maxHeadlines     = 12
	maxHeadlineRunes = 100

	NewsSourceMSN    = "msn"
	NewsSourceReddit = "reddit"
	NewsSourceLocal  = "local"
)

// Feed is one RSS or Atom source. For the local feed URL may contain a %s
// placeholder that receives the escaped "<place> news" search query.
type Feed struct {
	Source string
	URL    string
}

// NewsSource fetches headline feeds through the shared HTTP client and
// parses them with gofeed.
type NewsSource struct {
	http    client.HTTPGetter
	feeds   []Feed
	timeout time.Duration
	cache   *TimedCache
	metrics *Metrics
	logger  *zap.Logger
}

func NewNewsSource(getter client.HTTPGetter, feeds []Feed, timeout time.Duration, cache *TimedCache, metrics *Metrics, logger *zap.Logger) *NewsSource {
	return &NewsSource{
		http:    getter,
		feeds:   feeds,
		timeout: timeout,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func (n *NewsSource) feedURL(f Feed, place string) string {
	if !strings.Contains(f.URL, "%s") {
		return f.URL
	}
	return fmt.Sprintf(f.URL, url.QueryEscape(place+" news"))
}

// Headlines returns up to 12 headlines for one feed. Results are cached per
// source and place for 15 minutes.
func (n *NewsSource) Headlines(ctx context.Context, f Feed, place string) ([]models.Headline, error) {
	key := "news:" + f.Source + ":" + place
	if v, ok := n.cache.GetFresh(key, NewsTTL); ok {
		if headlines, ok := v.([]models.Headline); ok {
			return headlines, nil
		}
	}

	start := time.Now()
	headlines, err := n.fetch(ctx, f, place)
	n.metrics.ObserveFetch("news_"+f.Source, time.Since(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: news %s: %w", ErrUnavailable, f.Source, err)
	}

	n.cache.Put(key, headlines)
	return headlines, nil
}

func (n *NewsSource) fetch(ctx context.Context, f Feed, place string) ([]models.Headline, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/rss+xml, application/atom+xml, application/xml")

	resp, err := n.http.Get(ctx, n.feedURL(f, place), nil, headers, n.timeout)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %d", client.ErrUnexpectedStatus, resp.Status)
	}

	feed, err := gofeed.NewParser().ParseString(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	headlines := make([]models.Headline, 0, maxHeadlines)
	for _, item := range feed.Items {
		if len(headlines) == maxHeadlines {
			break
		}
		title := cleanTitle(item.Title, f.Source == NewsSourceLocal)
		if title == "" {
			continue
		}
		h := models.Headline{
			Title:  title,
			Link:   item.Link,
			Source: f.Source,
		}
		if item.PublishedParsed != nil {
			h.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			h.Published = *item.UpdatedParsed
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}

// cleanTitle trims whitespace and caps the length. Google News titles end in
// " - Publisher", which is dropped for the local feed.
func cleanTitle(title string, stripPublisher bool) string {
	title = strings.Join(strings.Fields(title), " ")
	if stripPublisher {
		if i := strings.LastIndex(title, " - "); i > 0 {
			title = title[:i]
		}
	}
	if r := []rune(title); len(r) > maxHeadlineRunes {
		title = string(r[:maxHeadlineRunes])
	}
	return title
}

// Refresh updates every configured feed in store. A failing feed keeps its
// previous headlines.
func (n *NewsSource) Refresh(ctx context.Context, place string, store *SnapshotStore) int {
	updated := 0
	for _, f := range n.feeds {
		headlines, err := n.Headlines(ctx, f, place)
		if err != nil {
			n.logger.Warn("Headline refresh failed",
				zap.String("source", f.Source),
				zap.Error(err))
			continue
		}
		store.SetHeadlines(f.Source, headlines)
		updated++
	}
	return updated
}
