// Package search implements the outbound evidence providers used by the
// research pipeline: a JSON web search API, a news RSS feed and a plain HTML
// page fetcher.
package search

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	maxBodyBytes     = 2 << 20
	defaultUserAgent = "intelbrief/1.0 (+https://github.com/joelkehle/intelbrief)"
)

type response struct {
	body        []byte
	finalURL    *url.URL
	contentType string
}

// get issues a GET and maps every failure onto the research provider errors.
// Bodies are capped at 2 MiB.
func get(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	res, err := client.Do(req)
	if err != nil {
		return response{}, transportError(ctx, provider, err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return response{}, transportError(ctx, provider, err)
	}
	if res.StatusCode >= 400 {
		return response{}, &research.ProviderHTTPError{
			Provider:   provider,
			Status:     res.StatusCode,
			Body:       string(b),
			RetryAfter: parseRetryAfter(res.Header.Get("Retry-After")),
		}
	}
	return response{body: b, finalURL: res.Request.URL, contentType: res.Header.Get("Content-Type")}, nil
}

// transportError strips the request URL from client errors, since query
// strings may carry API keys.
func transportError(ctx context.Context, provider string, err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &research.ProviderTimeoutError{Provider: provider, Err: err}
	}
	return &research.ProviderHTTPError{Provider: provider, Status: http.StatusBadGateway, Body: err.Error()}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func clampResults(n, max int) int {
	if n <= 0 || n > max {
		return max
	}
	return n
}
