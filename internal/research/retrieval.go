package research

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/intelbrief/internal/observability"
	"github.com/joelkehle/intelbrief/internal/retry"
)

// SearchOptions are per-call search settings.
type SearchOptions struct {
	MaxResults int
	Timeout    time.Duration
}

// Searcher is a web or news search provider. Implementations return
// *ProviderTimeoutError or *ProviderHTTPError for transport failures.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Snippet, error)
	Name() string
}

// RetrieverConfig bounds retrieval. Zero values take defaults.
type RetrieverConfig struct {
	Parallelism int
	MaxSnippets int
	Search      SearchOptions
	Retry       retry.Config
	Weights     SnippetWeights
}

func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.Parallelism <= 0 {
		c.Parallelism = 6
	}
	if c.MaxSnippets <= 0 {
		c.MaxSnippets = DefaultMaxSnippets
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = DefaultSearchResults
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 12 * time.Second
	}
	if c.Weights == (SnippetWeights{}) {
		c.Weights = DefaultSnippetWeights
	}
	if c.Retry.IsRetryable == nil {
		c.Retry.IsRetryable = IsRetryable
	}
	return c
}

// Retriever fans research queries out to the search providers.
type Retriever struct {
	web  Searcher
	news Searcher
	cfg  RetrieverConfig
	log  *zap.Logger
}

// NewRetriever builds a Retriever. news may be nil; when set it also
// receives every news-intent query.
func NewRetriever(web, news Searcher, cfg RetrieverConfig, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{web: web, news: news, cfg: cfg.withDefaults(), log: log}
}

type searchJob struct {
	query    ResearchQuery
	searcher Searcher
}

// Gather runs every query, absorbing per-query failures, and returns the
// selected snippet set. It fails only on cancellation or when nothing usable
// came back.
func (r *Retriever) Gather(ctx context.Context, targetDomain string, queries []ResearchQuery) (SnippetSet, RetrievalStats, error) {
	jobs := make([]searchJob, 0, len(queries)+2)
	for _, q := range queries {
		jobs = append(jobs, searchJob{query: q, searcher: r.web})
		if r.news != nil && q.Intent == IntentNews {
			jobs = append(jobs, searchJob{query: q, searcher: r.news})
		}
	}

	results, failed := runSearches(ctx, jobs, r.cfg.Parallelism, r.cfg.Search, r.cfg.Retry, r.log)
	stats := RetrievalStats{QueriesIssued: len(jobs), QueriesFailed: failed}
	if err := ctx.Err(); err != nil {
		return SnippetSet{}, stats, err
	}

	all := []Snippet{}
	for _, res := range results {
		all = append(all, res...)
	}
	stats.SnippetsFound = len(all)

	set := SelectSnippets(all, targetDomain, r.cfg.Weights, r.cfg.MaxSnippets)
	stats.SnippetsChosen = len(set.Snippets)
	stats.DistinctDomains = distinctDomains(set.Snippets)
	if len(set.Snippets) == 0 {
		return set, stats, ErrNoEvidence
	}
	return set, stats, nil
}

// runSearches executes jobs with bounded parallelism. Results are indexed by
// job so the output never depends on completion order. Failed jobs yield nil.
func runSearches(ctx context.Context, jobs []searchJob, parallelism int, opts SearchOptions, rc retry.Config, log *zap.Logger) ([][]Snippet, int) {
	results := make([][]Snippet, len(jobs))
	failures := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, job := range jobs {
		g.Go(func() error {
			snippets, attempts, err := retry.Do(gctx, rc, func(ctx context.Context) ([]Snippet, error) {
				return searchOnce(ctx, job.searcher, job.query.Text, opts)
			})
			if err != nil {
				failures[i] = true
				observability.ProviderCalls.WithLabelValues(job.searcher.Name(), "failed").Inc()
				if gctx.Err() == nil {
					log.Warn("search query failed",
						zap.String("provider", job.searcher.Name()),
						zap.String("intent", string(job.query.Intent)),
						zap.String("query", job.query.Text),
						zap.Int("attempts", attempts),
						zap.Error(err))
				}
				return nil
			}
			observability.ProviderCalls.WithLabelValues(job.searcher.Name(), "ok").Inc()
			results[i] = snippets
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return results, failed
}

func searchOnce(ctx context.Context, s Searcher, query string, opts SearchOptions) ([]Snippet, error) {
	cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	out, err := s.Search(cctx, query, opts)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		var te *ProviderTimeoutError
		if !errors.As(err, &te) {
			err = &ProviderTimeoutError{Provider: s.Name(), Err: err}
		}
	}
	return out, err
}
