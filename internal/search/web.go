package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	DefaultWebBaseURL         = "https://www.googleapis.com/customsearch/v1"
	DefaultRateLimitPerMinute = 100
	providerWeb               = "web"
	maxWebResults             = 10
)

// Metatag keys that carry a publication timestamp, most specific first.
var publishedMetaKeys = []string{"article:published_time", "datepublished", "og:updated_time", "date"}

type WebConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string
	// Language restricts results, e.g. "lang_de". Optional.
	Language string
	// Country boosts results from a country, e.g. "de". Optional.
	Country            string
	RateLimitPerMinute int
	HTTPClient         *http.Client
}

// WebSearcher queries a Custom Search style JSON API.
type WebSearcher struct {
	cfg     WebConfig
	limiter *rate.Limiter
}

func NewWebSearcher(cfg WebConfig) (*WebSearcher, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("SEARCH_API_KEY not configured")
	}
	cfg.EngineID = strings.TrimSpace(cfg.EngineID)
	if cfg.EngineID == "" {
		return nil, errors.New("SEARCH_ENGINE_ID not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWebBaseURL
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Every(time.Minute / time.Duration(cfg.RateLimitPerMinute))
	return &WebSearcher{cfg: cfg, limiter: rate.NewLimiter(limit, 1)}, nil
}

func (s *WebSearcher) Name() string { return providerWeb }

type webResponse struct {
	Items []webItem `json:"items"`
}

type webItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Pagemap struct {
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

func (s *WebSearcher) Search(ctx context.Context, query string, opts research.SearchOptions) ([]research.Snippet, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The next token falls after the deadline.
		return nil, &research.ProviderTimeoutError{Provider: providerWeb, Err: context.DeadlineExceeded}
	}
	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("cx", s.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprint(clampResults(opts.MaxResults, maxWebResults)))
	if s.cfg.Language != "" {
		params.Set("lr", s.cfg.Language)
	}
	if s.cfg.Country != "" {
		params.Set("gl", s.cfg.Country)
	}

	res, err := get(ctx, s.cfg.HTTPClient, providerWeb, strings.TrimRight(s.cfg.BaseURL, "/")+"?"+params.Encode(),
		http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, err
	}
	var parsed webResponse
	if err := json.Unmarshal(res.body, &parsed); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	out := make([]research.Snippet, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		out = append(out, research.Snippet{
			Title:       strings.TrimSpace(item.Title),
			URL:         link,
			Content:     strings.Join(strings.Fields(item.Snippet), " "),
			PublishedAt: publishedAt(item.Pagemap.Metatags),
			Source:      providerWeb,
		})
	}
	return out, nil
}

func publishedAt(metatags []map[string]string) *time.Time {
	for _, tags := range metatags {
		for _, key := range publishedMetaKeys {
			v := strings.TrimSpace(tags[key])
			if v == "" {
				continue
			}
			for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
				if t, err := time.Parse(layout, v); err == nil {
					t = t.UTC()
					return &t
				}
			}
		}
	}
	return nil
}
