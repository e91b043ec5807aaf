package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	DefaultNewsFeedURL = "https://news.google.com/rss/search"
	providerNews       = "news"
	maxNewsResults     = 20
)

type NewsConfig struct {
	FeedURL    string
	Language   string
	Country    string
	HTTPClient *http.Client
}

// NewsSearcher runs queries against an RSS search feed.
type NewsSearcher struct {
	cfg NewsConfig
}

func NewNewsSearcher(cfg NewsConfig) *NewsSearcher {
	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultNewsFeedURL
	}
	if cfg.Language == "" {
		cfg.Language = "de"
	}
	if cfg.Country == "" {
		cfg.Country = "DE"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &NewsSearcher{cfg: cfg}
}

func (s *NewsSearcher) Name() string { return providerNews }

func (s *NewsSearcher) Search(ctx context.Context, query string, opts research.SearchOptions) ([]research.Snippet, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", s.cfg.Language)
	params.Set("gl", s.cfg.Country)
	params.Set("ceid", s.cfg.Country+":"+s.cfg.Language)

	res, err := get(ctx, s.cfg.HTTPClient, providerNews, s.cfg.FeedURL+"?"+params.Encode(),
		http.Header{"Accept": {"application/rss+xml, application/atom+xml, application/xml;q=0.9"}})
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(res.body))
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	limit := clampResults(opts.MaxResults, maxNewsResults)
	out := make([]research.Snippet, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(out) >= limit {
			break
		}
		link := itemLink(item)
		if link == "" {
			continue
		}
		content := htmlText(item.Description)
		if content == "" {
			content = strings.TrimSpace(item.Title)
		}
		out = append(out, research.Snippet{
			Title:       strings.TrimSpace(item.Title),
			URL:         link,
			Content:     content,
			PublishedAt: itemTime(item),
			Source:      providerNews,
		})
	}
	return out, nil
}

// Aggregator hosts whose item links are redirects hiding the publisher.
var aggregatorHosts = map[string]bool{
	"news.google.com": true,
}

// itemLink prefers a publisher URL over an aggregator redirect: the item
// link, its alternate links, anchors in the description, then the GUID.
// The aggregator link is kept only when nothing better exists.
func itemLink(item *gofeed.Item) string {
	candidates := append([]string{item.Link}, item.Links...)
	candidates = append(candidates, descriptionLinks(item.Description)...)
	candidates = append(candidates, item.GUID)

	fallback := ""
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, "http://") && !strings.HasPrefix(c, "https://") {
			continue
		}
		if aggregatorHosts[research.HostOf(c)] {
			if fallback == "" {
				fallback = c
			}
			continue
		}
		return c
	}
	return fallback
}

func descriptionLinks(fragment string) []string {
	if !strings.Contains(fragment, "href") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		out = append(out, a.AttrOr("href", ""))
	})
	return out
}

func itemTime(item *gofeed.Item) *time.Time {
	var t *time.Time
	switch {
	case item.PublishedParsed != nil:
		t = item.PublishedParsed
	case item.UpdatedParsed != nil:
		t = item.UpdatedParsed
	default:
		return nil
	}
	utc := t.UTC()
	return &utc
}

// htmlText flattens an HTML fragment to whitespace-collapsed text.
func htmlText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
