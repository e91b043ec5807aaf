package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, user string, _ CompletionOptions) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, user)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, errors.New("unexpected completion call")
	}
	return decodeJSONObject(f.responses[i])
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSearcher struct {
	name string
	fn   func(query string) ([]Snippet, error)

	mu      sync.Mutex
	queries []string
}

func (f *fakeSearcher) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeSearcher) Search(ctx context.Context, query string, _ SearchOptions) ([]Snippet, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(query)
}

func (f *fakeSearcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.queries...)
}

// fakeFetcher serves pages keyed by URL. redirects maps a requested URL to
// the URL the page finally resolved to.
type fakeFetcher struct {
	pages     map[string]Page
	redirects map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (Page, error) {
	final := rawURL
	if r, ok := f.redirects[rawURL]; ok {
		final = r
	}
	p, ok := f.pages[final]
	if !ok {
		return Page{}, &ProviderHTTPError{Provider: "fetch", Status: 404}
	}
	p.URL = final
	return p, nil
}

var testSources = []string{
	"https://www.acme-logistik.de/ueber-uns",
	"https://www.acme-logistik.de/presse",
	"https://www.handelsblatt.com/acme-expands",
	"https://www.logistik-heute.de/acme",
	"https://www.dvz.de/acme-freight",
}

func testSnippetSet() SnippetSet {
	published := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	set := SnippetSet{}
	for i, u := range testSources {
		s := Snippet{Title: fmt.Sprintf("Source %d", i+1), URL: u, Content: "ACME Logistik GmbH is a freight forwarder in Leipzig."}
		if i%2 == 0 {
			s.PublishedAt = &published
		}
		set.Snippets = append(set.Snippets, s)
		set.Citations = append(set.Citations, u)
	}
	return set
}

func testInput() CompanyInput {
	return CompanyInput{
		Name:         "ACME Logistik GmbH",
		Website:      "acme-logistik.de",
		Industry:     "Logistics",
		Headquarters: Location{City: "Leipzig", Country: "Germany"},
	}
}

func useCaseDoc(i int) map[string]any {
	return map[string]any{
		"title":              fmt.Sprintf("Use case %d", i),
		"description":        "Automate dispatch planning with route forecasts.",
		"value_driver":       "cost",
		"complexity":         float64(2 + i%3),
		"effort":             float64(3),
		"est_annual_benefit": float64(100000 * i),
		"est_one_time_cost":  float64(40000),
		"est_ongoing_cost":   float64(10000),
		"payback_months":     float64(6 + i),
		"citations":          []any{testSources[i%len(testSources)]},
	}
}

// draftDoc builds an extractor answer with n use cases.
func draftDoc(n int) map[string]any {
	moves := []any{}
	for i := 1; i <= 3; i++ {
		moves = append(moves, map[string]any{
			"title":       fmt.Sprintf("Move %d", i),
			"description": "Opened a new cross-dock hub.",
			"date":        "2024",
			"citations":   []any{testSources[2]},
		})
	}
	useCases := []any{}
	for i := 1; i <= n; i++ {
		useCases = append(useCases, useCaseDoc(i))
	}
	return map[string]any{
		"company": map[string]any{
			"name":         "ACME Logistik GmbH",
			"website":      "https://acme-logistik.de",
			"summary":      "Mid-sized freight forwarder serving central Germany.",
			"headquarters": map[string]any{"city": "Leipzig", "country": "Germany"},
			"founded":      "1994",
			"ceo":          "Jana Beispiel",
			"employees":    "250",
			"citations":    []any{testSources[0], testSources[1]},
		},
		"industry": map[string]any{
			"name":    "Logistics",
			"summary": "Contract logistics and road freight.",
			"trends": []any{
				map[string]any{"title": "Automation", "description": "Warehouses automate picking.", "citations": []any{testSources[3]}},
			},
			"citations": []any{testSources[3], testSources[4]},
		},
		"strategic_moves": moves,
		"competitors":     []any{},
		"use_cases":       useCases,
	}
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
