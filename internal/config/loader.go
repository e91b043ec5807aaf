package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/search"
)

const EnvPrefix = "BRIEF"

var defaults = map[string]any{
	"app.name":        "intelbrief",
	"app.environment": "development",
	"app.version":     "dev",

	"server.addr":             ":8080",
	"server.read_timeout":     15 * time.Second,
	"server.write_timeout":    10 * time.Minute,
	"server.shutdown_timeout": 20 * time.Second,

	"log.level":  "info",
	"log.format": "json",

	"llm.api_key":    "",
	"llm.model":      research.DefaultLLMModel,
	"llm.max_tokens": 8192,
	"llm.timeout":    60 * time.Second,

	"search.api_key":               "",
	"search.engine_id":             "",
	"search.base_url":              search.DefaultWebBaseURL,
	"search.language":              "",
	"search.country":               "",
	"search.rate_limit_per_minute": search.DefaultRateLimitPerMinute,
	"search.max_results":           research.DefaultSearchResults,
	"search.timeout":               12 * time.Second,
	"search.news_enabled":          true,
	"search.news_feed_url":         search.DefaultNewsFeedURL,

	"fetch.timeout":        10 * time.Second,
	"fetch.user_agent":     "",
	"fetch.max_text_chars": 20000,

	"pipeline.deadline":            150 * time.Second,
	"pipeline.parallelism":         6,
	"pipeline.max_snippets":        research.DefaultMaxSnippets,
	"pipeline.max_competitors":     8,
	"pipeline.max_candidates":      24,
	"pipeline.competitors_enabled": true,
	"pipeline.retry_attempts":      3,
	"pipeline.retry_initial_delay": 500 * time.Millisecond,
	"pipeline.retry_max_delay":     5 * time.Second,

	"database.driver": "sqlite",
	"database.dsn":    "intelbrief.db",

	"redis.address":  "",
	"redis.password": "",
	"redis.db":       0,
	"redis.ttl":      24 * time.Hour,

	"tracing.enabled": false,
}

// Unprefixed variables honored for compatibility with common tooling.
var aliases = map[string]string{
	"llm.api_key":     "ANTHROPIC_API_KEY",
	"tracing.enabled": "OTEL_ENABLED",
	"app.environment": "APP_ENVIRONMENT",
}

// Load reads and fully validates configuration. configFile may be empty, in
// which case config.yaml is looked up in ./configs and the working directory
// and its absence is not an error.
func Load(configFile string) (*Config, error) {
	cfg, err := Read(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation, for callers that need only part of the
// settings.
func Read(configFile string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range aliases {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read base config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	normalize(&cfg)
	return &cfg, nil
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func normalize(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)
	cfg.Search.APIKey = strings.TrimSpace(cfg.Search.APIKey)
}

// Validate checks the settings needed to generate and store briefs.
func (c *Config) Validate() error {
	problems := c.providerProblems()
	problems = append(problems, c.storageProblems()...)
	return joinProblems(problems)
}

// ValidateStorage checks only what reading stored briefs needs.
func (c *Config) ValidateStorage() error {
	return joinProblems(c.storageProblems())
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) providerProblems() []string {
	var problems []string
	if c.LLM.APIKey == "" {
		problems = append(problems, "ANTHROPIC_API_KEY (llm.api_key) is required")
	}
	if c.Search.APIKey == "" {
		problems = append(problems, "BRIEF_SEARCH_API_KEY (search.api_key) is required")
	}
	if c.Search.EngineID == "" {
		problems = append(problems, "BRIEF_SEARCH_ENGINE_ID (search.engine_id) is required")
	}
	if c.Pipeline.Deadline < 0 {
		problems = append(problems, "pipeline.deadline must not be negative")
	}
	if c.Pipeline.Parallelism < 1 || c.Pipeline.Parallelism > 16 {
		problems = append(problems, "pipeline.parallelism must be between 1 and 16")
	}
	if c.Pipeline.RetryAttempts < 1 {
		problems = append(problems, "pipeline.retry_attempts must be at least 1")
	}
	return problems
}

func (c *Config) storageProblems() []string {
	var problems []string
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		problems = append(problems, "database.dsn is required")
	}
	return problems
}
