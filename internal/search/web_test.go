package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/intelbrief/internal/research"
)

func newTestWebSearcher(t *testing.T, srv *httptest.Server) *WebSearcher {
	t.Helper()
	s, err := NewWebSearcher(WebConfig{
		APIKey:             "secret-key",
		EngineID:           "engine",
		BaseURL:            srv.URL,
		Language:           "lang_de",
		HTTPClient:         srv.Client(),
		RateLimitPerMinute: 60000,
	})
	require.NoError(t, err)
	return s
}

func TestWebSearcherMapsItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret-key", q.Get("key"))
		assert.Equal(t, "engine", q.Get("cx"))
		assert.Equal(t, `"ACME" news`, q.Get("q"))
		assert.Equal(t, "10", q.Get("num"))
		assert.Equal(t, "lang_de", q.Get("lr"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"ACME expands","link":"https://www.handelsblatt.com/acme","snippet":"ACME opens\n a hub.",
			 "pagemap":{"metatags":[{"article:published_time":"2025-04-02T08:00:00+02:00"}]}},
			{"title":"no link","link":"","snippet":"x"},
			{"title":"About ACME","link":"https://acme.de/about","snippet":"Family owned."}
		]}`))
	}))
	defer srv.Close()

	got, err := newTestWebSearcher(t, srv).Search(context.Background(), `"ACME" news`, research.SearchOptions{MaxResults: 25})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ACME opens a hub.", got[0].Content)
	require.NotNil(t, got[0].PublishedAt)
	assert.Equal(t, time.Date(2025, 4, 2, 6, 0, 0, 0, time.UTC), *got[0].PublishedAt)
	assert.Equal(t, "web", got[0].Source)
	assert.Nil(t, got[1].PublishedAt)
}

func TestWebSearcherEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}))
	defer srv.Close()

	got, err := newTestWebSearcher(t, srv).Search(context.Background(), "q", research.SearchOptions{MaxResults: 3})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWebSearcherRateLimitedCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429}}`))
	}))
	defer srv.Close()

	_, err := newTestWebSearcher(t, srv).Search(context.Background(), "q", research.SearchOptions{})
	var he *research.ProviderHTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Status)
	assert.Equal(t, 7*time.Second, he.RetryAfter)
	assert.True(t, research.IsRetryable(err))
}

func TestWebSearcherForbiddenIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestWebSearcher(t, srv).Search(context.Background(), "q", research.SearchOptions{})
	require.Error(t, err)
	assert.False(t, research.IsRetryable(err))
}

func TestWebSearcherTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	s := newTestWebSearcher(t, srv)
	srv.Close()

	_, err := s.Search(context.Background(), "q", research.SearchOptions{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
	assert.True(t, research.IsRetryable(err))
}

func TestWebSearcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestWebSearcher(t, srv).Search(ctx, "q", research.SearchOptions{})
	var te *research.ProviderTimeoutError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewWebSearcherRequiresCredentials(t *testing.T) {
	_, err := NewWebSearcher(WebConfig{EngineID: "x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "SEARCH_API_KEY"))
	_, err = NewWebSearcher(WebConfig{APIKey: "x"})
	require.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	assert.Greater(t, parseRetryAfter(future), 30*time.Second)
}

func TestWebSearcherRateLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	s, err := NewWebSearcher(WebConfig{APIKey: "k", EngineID: "e", BaseURL: srv.URL, HTTPClient: srv.Client(), RateLimitPerMinute: 600})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := s.Search(context.Background(), "q", research.SearchOptions{})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
