// Package sync refreshes feeds from their sources.
package sync

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/sym01/htmlsanitizer"
	"golang.org/x/time/rate"

	"github.com/jdholdren/newsroom/internal/news"
)

type (
	// Fetcher downloads and parses feed documents.
	//
	// It remembers each URL's ETag and Last-Modified so unchanged feeds cost a 304, and
	// paces outgoing requests so a full refresh doesn't hammer anyone.
	Fetcher struct {
		client     *http.Client
		parser     *gofeed.Parser
		limiter    *rate.Limiter
		validators *lru.Cache[string, validators]
		userAgent  string
	}

	FetcherConfig struct {
		Timeout           time.Duration
		RequestsPerSecond float64
		Burst             int
		CacheSize         int
		UserAgent         string
	}

	validators struct {
		etag         string
		lastModified string
	}

	// Result is a fetched feed document. Items have no FeedID yet.
	Result struct {
		Title       string
		Link        string
		Items       []news.Item
		NotModified bool
	}
)

func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "newsroom/1.0"
	}
	cache, _ := lru.New[string, validators](cfg.CacheSize)

	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		parser:     gofeed.NewParser(),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		validators: cache,
		userAgent:  cfg.UserAgent,
	}
}

// Fetch downloads feedURL. A source answering 304 yields a Result with NotModified set.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (Result, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("error waiting to fetch %s: %w", feedURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if v, ok := f.validators.Get(feedURL); ok {
		if v.etag != "" {
			req.Header.Set("If-None-Match", v.etag)
		}
		if v.lastModified != "" {
			req.Header.Set("If-Modified-Since", v.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("error getting feed url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return Result{NotModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("error parsing feed: %w", err)
	}

	f.validators.Add(feedURL, validators{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	})

	return toResult(parsed), nil
}

func toResult(parsed *gofeed.Feed) Result {
	res := Result{
		Title: stripTags(parsed.Title),
		Link:  parsed.Link,
		Items: make([]news.Item, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		if guid == "" {
			continue
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		var pubDate int64
		if item.PublishedParsed != nil {
			pubDate = item.PublishedParsed.Unix()
		} else if item.UpdatedParsed != nil {
			pubDate = item.UpdatedParsed.Unix()
		}

		var author string
		if item.Author != nil {
			author = item.Author.Name
		}

		n := news.Item{
			GUID:    guid,
			URL:     item.Link,
			Title:   stripTags(item.Title),
			Author:  stripTags(author),
			Body:    sanitizeBody(body),
			PubDate: pubDate,
			Status:  news.StatusUnread,
		}
		if len(item.Enclosures) > 0 {
			n.EnclosureMime = item.Enclosures[0].Type
			n.EnclosureLink = item.Enclosures[0].URL
		}

		res.Items = append(res.Items, n)
	}

	return res
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, usually a title.
func stripTags(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}

// sanitizeBody keeps the markup of an item body that is safe to render, falling back to
// plain text if the sanitizer can't make sense of it.
func sanitizeBody(s string) string {
	sanitized, err := htmlsanitizer.NewHTMLSanitizer().SanitizeString(s)
	if err != nil {
		return stripTags(s)
	}

	return strings.TrimSpace(sanitized)
}
