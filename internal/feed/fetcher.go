// Package feed fetches and parses RSS and Atom sources.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/util"
)

const httpPrefix = "http"

// Item is a single entry extracted from a feed, normalized for the pipeline.
type Item struct {
	Title       string
	Link        string
	Summary     string
	Content     string
	ImageURL    string
	PublishedAt time.Time
}

// Fetcher downloads and parses feeds with a bounded per-request timeout.
type Fetcher struct {
	client   *http.Client
	parser   *gofeed.Parser
	maxItems int
}

func NewFetcher(timeout time.Duration, maxItems int) *Fetcher {
	if maxItems <= 0 {
		maxItems = 10
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		parser:   gofeed.NewParser(),
		maxItems: maxItems,
	}
}

// Fetch downloads one source's feed and returns its newest items, capped at
// maxItems. Persian feeds occasionally ship non-UTF-8 bodies, so the body is
// decoded through the declared charset before parsing.
func (f *Fetcher) Fetch(ctx context.Context, source models.Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", source.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request for %s: %w", source.Name, err)
	}
	req.Header.Set("User-Agent", "rozegar-automation/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", source.Name, resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode feed %s: %w", source.Name, err)
	}
	body, err := io.ReadAll(io.LimitReader(reader, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", source.Name, err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.Name, err)
	}

	return f.extractItems(parsed), nil
}

func (f *Fetcher) extractItems(parsed *gofeed.Feed) []Item {
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		link := extractLink(entry)
		if link == "" || strings.TrimSpace(entry.Title) == "" {
			continue
		}
		if normalized, err := util.NormalizeURL(link); err == nil {
			link = normalized
		}

		item := Item{
			Title:    strings.TrimSpace(entry.Title),
			Link:     link,
			Summary:  strings.TrimSpace(entry.Description),
			Content:  strings.TrimSpace(entry.Content),
			ImageURL: extractImage(entry),
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = *entry.UpdatedParsed
		}
		items = append(items, item)
	}

	// Newest first, then cap. Feeds are mostly ordered already but some
	// Persian aggregators interleave categories.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}
	return items
}

// extractLink prefers the item link and falls back to a GUID that looks like
// a URL.
func extractLink(entry *gofeed.Item) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(entry.GUID); strings.HasPrefix(guid, httpPrefix) {
		return guid
	}
	return ""
}

func extractImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
