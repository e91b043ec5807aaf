// Package app wires configuration into the pipeline, store and HTTP router
// shared by the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/config"
	"github.com/joelkehle/intelbrief/internal/httpapi"
	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/retry"
	"github.com/joelkehle/intelbrief/internal/search"
	"github.com/joelkehle/intelbrief/internal/store"
)

// Providers are the outbound collaborators of a pipeline. Tests substitute
// fakes; NewProviders builds the real ones.
type Providers struct {
	Web     research.Searcher
	News    research.Searcher
	Fetcher research.EvidenceFetcher
	LLM     research.Completer
}

func NewProviders(cfg *config.Config) (Providers, error) {
	web, err := search.NewWebSearcher(search.WebConfig{
		APIKey:             cfg.Search.APIKey,
		EngineID:           cfg.Search.EngineID,
		BaseURL:            cfg.Search.BaseURL,
		Language:           cfg.Search.Language,
		Country:            cfg.Search.Country,
		RateLimitPerMinute: cfg.Search.RateLimitPerMinute,
	})
	if err != nil {
		return Providers{}, fmt.Errorf("web search: %w", err)
	}
	llm, err := research.NewAnthropicCompleter(cfg.LLM.APIKey)
	if err != nil {
		return Providers{}, fmt.Errorf("llm: %w", err)
	}
	p := Providers{
		Web: web,
		Fetcher: search.NewPageFetcher(search.FetchConfig{
			UserAgent:    cfg.Fetch.UserAgent,
			MaxTextChars: cfg.Fetch.MaxTextChars,
		}),
		LLM: llm,
	}
	if cfg.Search.NewsEnabled {
		p.News = search.NewNewsSearcher(search.NewsConfig{FeedURL: cfg.Search.NewsFeedURL})
	}
	return p, nil
}

func retryConfig(cfg *config.Config) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.Pipeline.RetryAttempts
	rc.InitialDelay = cfg.Pipeline.RetryInitialDelay
	rc.MaxDelay = cfg.Pipeline.RetryMaxDelay
	return rc
}

// NewPipeline assembles the research pipeline. Competitor discovery is left
// out when disabled in cfg.
func NewPipeline(cfg *config.Config, p Providers, log *zap.Logger) (*research.Pipeline, error) {
	searchOpts := research.SearchOptions{MaxResults: cfg.Search.MaxResults, Timeout: cfg.Search.Timeout}

	retriever := research.NewRetriever(p.Web, p.News, research.RetrieverConfig{
		Parallelism: cfg.Pipeline.Parallelism,
		MaxSnippets: cfg.Pipeline.MaxSnippets,
		Search:      searchOpts,
		Retry:       retryConfig(cfg),
	}, log.Named("retrieve"))

	extractor := research.NewExtractor(p.LLM, research.ExtractorConfig{
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, log.Named("extract"))

	var discoverer *research.Discoverer
	if cfg.Pipeline.CompetitorsEnabled {
		discoverer = research.NewDiscoverer(p.Web, p.Fetcher, research.DiscoveryConfig{
			Parallelism:    cfg.Pipeline.Parallelism,
			MaxCompetitors: cfg.Pipeline.MaxCompetitors,
			MaxCandidates:  cfg.Pipeline.MaxCandidates,
			Search:         searchOpts,
			FetchTimeout:   cfg.Fetch.Timeout,
			Retry:          retryConfig(cfg),
		}, log.Named("competitors"))
	}

	pipeline := research.NewPipeline(retriever, extractor, discoverer, research.PipelineConfig{
		Deadline: cfg.Pipeline.Deadline,
	}, log)
	if err := pipeline.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	return pipeline, nil
}

// Storage is the opened store with its health checks and cleanup.
type Storage struct {
	Store  store.Store
	Checks map[string]httpapi.HealthCheck
	Close  func()
}

// OpenStorage opens the SQL store and, when a Redis address is configured,
// puts the cache in front of it.
func OpenStorage(cfg *config.Config, log *zap.Logger) (*Storage, error) {
	sqlStore, err := store.OpenSQL(cfg.Database.Driver, cfg.Database.DSN, log.Named("store"))
	if err != nil {
		return nil, err
	}
	st := &Storage{
		Store:  sqlStore,
		Checks: map[string]httpapi.HealthCheck{"database": sqlStore.Ping},
		Close:  func() { _ = sqlStore.Close() },
	}
	if cfg.Redis.Address == "" {
		return st, nil
	}

	client, err := store.NewRedisClient(store.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	st.Store = store.NewCachedStore(sqlStore, client, cfg.Redis.TTL, log.Named("cache"))
	st.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	st.Close = func() {
		_ = client.Close()
		_ = sqlStore.Close()
	}
	return st, nil
}
