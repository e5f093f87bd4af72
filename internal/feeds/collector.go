// Package feeds pulls entries out of the registered syndication feeds.
package feeds

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/jdholdren/touchline/internal/touchline"
)

const untitled = "(제목 없음)"

// Collector fetches feeds and normalizes their entries.
type Collector struct {
	client  *http.Client
	timeout time.Duration
}

// NewCollector creates a collector that gives each feed fetch timeout to finish.
func NewCollector(client *http.Client, timeout time.Duration) *Collector {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = touchline.DefaultFetchTimeout
	}

	return &Collector{
		client:  client,
		timeout: timeout,
	}
}

// Collect fetches every source in parallel and returns the union of what parsed.
//
// A source that fails is logged and left out; it never fails the others.
// Items keep feed order, with sources concatenated in the order given.
func (c *Collector) Collect(ctx context.Context, sources []touchline.FeedSource) []touchline.CollectedItem {
	var (
		g       errgroup.Group
		results = make([][]touchline.CollectedItem, len(sources))
	)
	for i, src := range sources {
		g.Go(func() error {
			items, err := c.Fetch(ctx, src)
			if err != nil {
				slog.ErrorContext(ctx, "error collecting feed", "source", src.Name, "url", src.URL, "error", err)
				return nil
			}

			slog.InfoContext(ctx, "collected feed", "source", src.Name, "count", len(items))
			results[i] = items
			return nil
		})
	}
	g.Wait()

	var all []touchline.CollectedItem
	for _, items := range results {
		all = append(all, items...)
	}

	slog.InfoContext(ctx, "collected all feeds", "sources", len(sources), "count", len(all))
	return all
}

// Fetch grabs a single feed and normalizes its entries.
func (c *Collector) Fetch(ctx context.Context, src touchline.FeedSource) ([]touchline.CollectedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", touchline.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting feed url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Parsers hold decoding state, so each fetch gets its own
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error decoding feed: %w", err)
	}

	items := make([]touchline.CollectedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item, ok := normalize(src.Name, entry)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// Maps a raw feed entry onto a collected item.
//
// Returns false for entries with neither a guid nor a link, since there's no way to dedup them.
func normalize(source string, entry *gofeed.Item) (touchline.CollectedItem, bool) {
	guid := coalesce(entry.GUID, entry.Link)
	if guid == "" {
		return touchline.CollectedItem{}, false
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = untitled
	}

	return touchline.CollectedItem{
		GUID:        guid,
		Source:      source,
		Title:       title,
		Link:        entry.Link,
		PubDate:     pubDate(entry),
		Description: coalesce(plainText(entry.Description), plainText(entry.Content)),
	}, true
}

// Prefers the dates the feed parser already normalized, then has a go at the raw strings.
func pubDate(entry *gofeed.Item) *time.Time {
	for _, t := range []*time.Time{entry.PublishedParsed, entry.UpdatedParsed} {
		if t != nil {
			utc := t.UTC()
			return &utc
		}
	}

	for _, raw := range []string{entry.Published, entry.Updated} {
		if raw == "" {
			continue
		}
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			continue
		}
		utc := t.UTC()
		return &utc
	}

	return nil
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, leaving the text a reader would see.
func plainText(s string) string {
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// coalesce returns the first non-empty string from the provided values
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
