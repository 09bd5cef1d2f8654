// Package common provides shared utilities for finsent
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for finsent
type Config struct {
	Environment string         `toml:"environment"`
	DataRoot    string         `toml:"data_root"` // relative paths resolve under it, see ResolvePaths
	Paths       PathsConfig    `toml:"paths"`
	Monthly     MonthlyConfig  `toml:"monthly"`
	Classify    ClassifyConfig `toml:"classify"`
	Clients     ClientsConfig  `toml:"clients"`
	Logging     LoggingConfig  `toml:"logging"`
}

// PathsConfig holds the file locations used by the batch jobs.
// Defaults mirror the dataset layout the jobs were written against.
type PathsConfig struct {
	NewsRaw          string `toml:"news_raw"`          // analyst ratings as downloaded
	SymbolsMeta      string `toml:"symbols_meta"`      // exchange symbol registry
	Lookup           string `toml:"lookup"`            // lookup builder output
	CleanseLookup    string `toml:"cleanse_lookup"`    // lookup consumed by the cleanser
	StocksDir        string `toml:"stocks_dir"`        // one CSV per ticker
	StocksRemovedDir string `toml:"stocks_removed_dir"`
	NewsFiltered     string `toml:"news_filtered"`
	LookupFiltered   string `toml:"lookup_filtered"`
	PriceDir         string `toml:"price_dir"`
	SentimentDir     string `toml:"sentiment_dir"`
	ChartDir         string `toml:"chart_dir"`
	CheckpointDir    string `toml:"checkpoint_dir"`
}

// Reroot resolves every relative path under root
func (p *PathsConfig) Reroot(root string) {
	for _, field := range []*string{
		&p.NewsRaw, &p.SymbolsMeta, &p.Lookup, &p.CleanseLookup,
		&p.StocksDir, &p.StocksRemovedDir, &p.NewsFiltered, &p.LookupFiltered,
		&p.PriceDir, &p.SentimentDir, &p.ChartDir, &p.CheckpointDir,
	} {
		if *field != "" && !filepath.IsAbs(*field) {
			*field = filepath.Join(root, *field)
		}
	}
}

// MonthlyConfig holds defaults for the monthly price vs. sentiment job
type MonthlyConfig struct {
	PriceCol      string   `toml:"price_col"`
	DateColPrice  string   `toml:"date_col_price"`
	DateColSent   string   `toml:"date_col_sent"`
	SentimentCols []string `toml:"sentiment_cols"`
	PriceAgg      string   `toml:"price_agg"` // "mean" or "last"
	Start         string   `toml:"start"`     // YYYY-MM-DD cutoff
	Timezone      string   `toml:"timezone"`  // zone used to key sentiment to trading days
	ChartWidth    int      `toml:"chart_width"`
	ChartHeight   int      `toml:"chart_height"`
}

// GetStart parses the start cutoff, falling back to 2019-01-01
func (c *MonthlyConfig) GetStart() time.Time {
	t, err := time.Parse("2006-01-02", c.Start)
	if err != nil {
		return time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// ClassifyConfig holds headline classification settings
type ClassifyConfig struct {
	Input       string `toml:"input"`
	Output      string `toml:"output"`
	Provider    string `toml:"provider"` // "gemini", "openai" or "lexicon"
	TitleCol    string `toml:"title_col"`
	Concurrency int    `toml:"concurrency"`
	MaxRetries  int    `toml:"max_retries"`
	MinBackoff  string `toml:"min_backoff"`
	MaxBackoff  string `toml:"max_backoff"`
	Checkpoint  bool   `toml:"checkpoint"`
}

// GetMinBackoff parses and returns the initial retry backoff
func (c *ClassifyConfig) GetMinBackoff() time.Duration {
	d, err := time.ParseDuration(c.MinBackoff)
	if err != nil {
		return time.Second
	}
	return d
}

// GetMaxBackoff parses and returns the retry backoff ceiling
func (c *ClassifyConfig) GetMaxBackoff() time.Duration {
	d, err := time.ParseDuration(c.MaxBackoff)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
	OpenAI OpenAIConfig `toml:"openai"`
	EODHD  EODHDConfig  `toml:"eodhd"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey              string `toml:"api_key"`
	Model               string `toml:"model"`
	MaxRequestPerMinute int    `toml:"max_request_per_minute"`
	Timeout             string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// OpenAIConfig holds configuration for an OpenAI-compatible chat endpoint
type OpenAIConfig struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	MaxRequestPerMinute int    `toml:"max_request_per_minute"`
	Timeout             string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *OpenAIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Exchange  string `toml:"exchange"` // suffix appended to bare tickers, e.g. "US"
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Paths: PathsConfig{
			NewsRaw:          "data/analyst_ratings_processed.csv",
			SymbolsMeta:      "data/stock_data/symbols_valid_meta.csv",
			Lookup:           "data/stock_lookup.csv",
			CleanseLookup:    "tables/stock_lookup.csv",
			StocksDir:        "data/stock_data/stocks",
			StocksRemovedDir: "data/stock_data/stocks_removed",
			NewsFiltered:     "data/analyst_ratings_filtered.csv",
			LookupFiltered:   "tables/stock_lookup_filtered.csv",
			PriceDir:         "data/stock_price",
			SentimentDir:     "data/stock_sentiment",
			ChartDir:         "charts",
			CheckpointDir:    "data/checkpoints",
		},
		Monthly: MonthlyConfig{
			PriceCol:      "Close",
			DateColPrice:  "Date",
			DateColSent:   "date",
			SentimentCols: []string{"avg_sentiment", "sentiment", "label"},
			PriceAgg:      "mean",
			Start:         "2019-01-01",
			Timezone:      "America/New_York",
			ChartWidth:    1000,
			ChartHeight:   500,
		},
		Classify: ClassifyConfig{
			Input:       "tables/test_sample.csv",
			Output:      "tables/test_sample_with_sentiment.csv",
			Provider:    "gemini",
			TitleCol:    "title",
			Concurrency: 4,
			MaxRetries:  3,
			MinBackoff:  "1s",
			MaxBackoff:  "30s",
			Checkpoint:  true,
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model:               "gemini-2.5-flash",
				MaxRequestPerMinute: 60,
				Timeout:             "60s",
			},
			OpenAI: OpenAIConfig{
				Model:               "gpt-4o-mini",
				MaxRequestPerMinute: 60,
				Timeout:             "60s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				Exchange:  "US",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/finsent.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// A .env next to the working directory supplies API keys the way the scripts expect
	_ = godotenv.Load()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINSENT_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("FINSENT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("FINSENT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if root := os.Getenv("FINSENT_DATA_PATH"); root != "" {
		config.DataRoot = root
	}

	if provider := os.Getenv("FINSENT_CLASSIFY_PROVIDER"); provider != "" {
		config.Classify.Provider = strings.ToLower(provider)
	}

	if c := os.Getenv("FINSENT_CLASSIFY_CONCURRENCY"); c != "" {
		if n, err := strconv.Atoi(c); err == nil && n > 0 {
			config.Classify.Concurrency = n
		}
	}

	if model := os.Getenv("FINSENT_GEMINI_MODEL"); model != "" {
		config.Clients.Gemini.Model = model
	}

	if model := os.Getenv("FINSENT_OPENAI_MODEL"); model != "" {
		config.Clients.OpenAI.Model = model
	}

	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		config.Clients.OpenAI.BaseURL = url
	}
}

// ResolvePaths reroots the relative paths under DataRoot. Call it once,
// after every override has had its chance to set DataRoot.
func (c *Config) ResolvePaths() {
	if c.DataRoot != "" {
		c.Paths.Reroot(c.DataRoot)
	}
}

// ResolveAPIKey resolves an API key from environment or fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "FINSENT_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"openai_api_key": {"OPENAI_API_KEY", "FINSENT_OPENAI_API_KEY"},
		"eodhd_api_key":  {"EODHD_API_KEY", "FINSENT_EODHD_API_KEY"},
	}

	// Environment variables take priority over the config file
	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
