package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	providerFetch       = "fetch"
	defaultMaxTextChars = 20000
	maxRedirects        = 5
)

// Elements stripped before body text is read. Footers stay: they carry the
// postal address used for geography scoring.
const nonContentSelectors = "script, style, noscript, template, svg"

type FetchConfig struct {
	HTTPClient   *http.Client
	UserAgent    string
	MaxTextChars int
}

// PageFetcher downloads HTML pages for competitor verification.
type PageFetcher struct {
	cfg FetchConfig
}

func NewPageFetcher(cfg FetchConfig) *PageFetcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("stopped after 5 redirects")
				}
				return nil
			},
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = defaultMaxTextChars
	}
	return &PageFetcher{cfg: cfg}
}

// Fetch returns the page with its URL after redirects. Non-HTML responses
// are rejected.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (research.Page, error) {
	res, err := get(ctx, f.cfg.HTTPClient, providerFetch, rawURL, http.Header{
		"Accept":          {"text/html,application/xhtml+xml;q=0.9,*/*;q=0.5"},
		"Accept-Language": {"de,en;q=0.8"},
		"User-Agent":      {f.cfg.UserAgent},
	})
	if err != nil {
		return research.Page{}, err
	}
	if ct := strings.ToLower(res.contentType); ct != "" && !strings.Contains(ct, "html") {
		return research.Page{}, fmt.Errorf("fetch %s: unsupported content type %q", rawURL, res.contentType)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.body))
	if err != nil {
		return research.Page{}, fmt.Errorf("parse html: %w", err)
	}

	text := bodyText(doc)
	if r := []rune(text); len(r) > f.cfg.MaxTextChars {
		text = string(r[:f.cfg.MaxTextChars])
	}
	return research.Page{
		URL:         res.finalURL.String(),
		Title:       pageTitle(doc),
		Description: metaDescription(doc),
		SiteName:    metaContent(doc, "meta[property='og:site_name']"),
		Text:        text,
	}, nil
}

func pageTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return strings.Join(strings.Fields(title), " ")
	}
	return metaContent(doc, "meta[property='og:title']")
}

func metaDescription(doc *goquery.Document) string {
	if d := metaContent(doc, "meta[name='description']"); d != "" {
		return d
	}
	return metaContent(doc, "meta[property='og:description']")
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.Join(strings.Fields(v), " ")
}

func bodyText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	body.Find(nonContentSelectors).Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}
