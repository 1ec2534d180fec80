package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/abhaya/internal/news"
)

const feedSourceName = "rss"

// Feed fetches the digest from an RSS or Atom feed.
type Feed struct {
	url     string
	limit   int
	timeout time.Duration
}

// NewFeed creates a feed fetcher. Zero limit or timeout selects the defaults.
func NewFeed(feedURL string, limit int, timeout time.Duration) (*Feed, error) {
	u, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil {
		return nil, fmt.Errorf("rss: parse feed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rss: feed url %q must be http or https", feedURL)
	}
	if limit < 0 || timeout < 0 {
		return nil, errors.New("rss: limit and timeout must not be negative")
	}
	return &Feed{
		url:     u.String(),
		limit:   orDefault(limit, DefaultLimit),
		timeout: orDefault(timeout, DefaultTimeout),
	}, nil
}

func (f *Feed) Name() string {
	return feedSourceName
}

func (f *Feed) Fetch(ctx context.Context) ([]news.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = httpClient
	feed, err := fp.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, failed(feedSourceName, err)
	}

	return itemsFromFeed(feed, f.limit), nil
}

func itemsFromFeed(feed *gofeed.Feed, limit int) []news.Item {
	items := make([]news.Item, 0, min(len(feed.Items), limit))
	for _, it := range feed.Items {
		id := feedItemID(it)
		title := strings.TrimSpace(it.Title)
		if id == "" || title == "" {
			continue
		}
		category := ""
		if len(it.Categories) > 0 {
			category = strings.TrimSpace(it.Categories[0])
		}
		items = append(items, news.Item{
			ID:        id,
			Title:     title,
			CreatedAt: feedItemTime(it),
			Category:  category,
			URL:       strings.TrimSpace(it.Link),
		})
		if len(items) == limit {
			break
		}
	}
	return items
}

func feedItemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func feedItemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}
