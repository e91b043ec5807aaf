// Package config loads service settings from an optional YAML file, a .env
// file and BRIEF_* environment variables.
package config

import "time"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LLMConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	EngineID           string        `mapstructure:"engine_id"`
	BaseURL            string        `mapstructure:"base_url"`
	Language           string        `mapstructure:"language"`
	Country            string        `mapstructure:"country"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	MaxResults         int           `mapstructure:"max_results"`
	Timeout            time.Duration `mapstructure:"timeout"`
	NewsEnabled        bool          `mapstructure:"news_enabled"`
	NewsFeedURL        string        `mapstructure:"news_feed_url"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxTextChars int           `mapstructure:"max_text_chars"`
}

type PipelineConfig struct {
	Deadline           time.Duration `mapstructure:"deadline"`
	Parallelism        int           `mapstructure:"parallelism"`
	MaxSnippets        int           `mapstructure:"max_snippets"`
	MaxCompetitors     int           `mapstructure:"max_competitors"`
	MaxCandidates      int           `mapstructure:"max_candidates"`
	CompetitorsEnabled bool          `mapstructure:"competitors_enabled"`
	RetryAttempts      int           `mapstructure:"retry_attempts"`
	RetryInitialDelay  time.Duration `mapstructure:"retry_initial_delay"`
	RetryMaxDelay      time.Duration `mapstructure:"retry_max_delay"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig enables the brief cache when Address is set.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
