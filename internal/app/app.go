// Package app wires configuration, logging, storage, clients and services
// for the finsent jobs.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/finsent/internal/clients/eodhd"
	"github.com/bobmcallan/finsent/internal/clients/gemini"
	"github.com/bobmcallan/finsent/internal/clients/openai"
	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/services/cleanse"
	"github.com/bobmcallan/finsent/internal/services/lookup"
	"github.com/bobmcallan/finsent/internal/services/monthly"
	"github.com/bobmcallan/finsent/internal/services/prices"
	"github.com/bobmcallan/finsent/internal/services/sentiment"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

// Classification providers
const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderLexicon = "lexicon"
)

// App holds the configuration and the services shared by every job.
// Remote clients are built on demand so a job never needs keys it does not use.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.TableStorage
	RunID       string
	StartupTime time.Time

	LookupService  *lookup.Service
	CleanseService *cleanse.Service
	MonthlyService *monthly.Service
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes the shared services.
// configPath may be empty, in which case FINSENT_CONFIG, then finsent.toml
// beside the binary, then config/finsent.toml are tried. Overrides run after
// the config is loaded and before paths are resolved and the logger is built.
func NewApp(configPath string, overrides ...func(*common.Config)) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("FINSENT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "finsent.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finsent.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, override := range overrides {
		override(config)
	}
	config.ResolvePaths()

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging)), nil
}

// NewAppWithConfig initializes the services from an already loaded config
func NewAppWithConfig(config *common.Config, logger *common.Logger) *App {
	store := tablefs.NewStore(logger)
	return &App{
		Config:         config,
		Logger:         logger,
		Storage:        store,
		RunID:          uuid.New().String(),
		StartupTime:    time.Now(),
		LookupService:  lookup.NewService(store, logger),
		CleanseService: cleanse.NewService(store, logger),
		MonthlyService: monthly.NewService(store, logger),
	}
}

// Classifier builds the classification strategy for provider. Remote
// providers fail here, before any input is read, when no API key is set.
func (a *App) Classifier(ctx context.Context, provider string) (interfaces.Classifier, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = a.Config.Classify.Provider
	}

	switch provider {
	case ProviderLexicon:
		return sentiment.NewLexiconClassifier(), nil

	case ProviderGemini:
		cfg := a.Config.Clients.Gemini
		key, err := common.ResolveAPIKey("gemini_api_key", cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("set GEMINI_API_KEY before running: %w", err)
		}
		client, err := gemini.NewClient(ctx, key,
			gemini.WithModel(cfg.Model),
			gemini.WithRateLimit(cfg.MaxRequestPerMinute),
			gemini.WithTimeout(cfg.GetTimeout()),
			gemini.WithLogger(a.Logger),
		)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().Str("provider", provider).Str("model", client.Model()).Msg("Remote classifier ready")
		return sentiment.NewRemoteClassifier(client, provider), nil

	case ProviderOpenAI:
		cfg := a.Config.Clients.OpenAI
		key, err := common.ResolveAPIKey("openai_api_key", cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("set OPENAI_API_KEY before running: %w", err)
		}
		client, err := openai.NewClient(key,
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithRateLimit(cfg.MaxRequestPerMinute),
			openai.WithTimeout(cfg.GetTimeout()),
			openai.WithLogger(a.Logger),
		)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().Str("provider", provider).Str("model", client.Model()).Msg("Remote classifier ready")
		return sentiment.NewRemoteClassifier(client, provider), nil
	}

	return nil, fmt.Errorf("unknown classification provider '%s' (want gemini, openai or lexicon)", provider)
}

// SentimentRunner builds a classification runner for provider
func (a *App) SentimentRunner(ctx context.Context, provider string) (*sentiment.Runner, error) {
	classifier, err := a.Classifier(ctx, provider)
	if err != nil {
		return nil, err
	}
	return sentiment.NewRunner(classifier, a.Storage, a.Logger), nil
}

// PricesService builds the price fetcher, which needs an EODHD key
func (a *App) PricesService() (*prices.Service, error) {
	cfg := a.Config.Clients.EODHD
	key, err := common.ResolveAPIKey("eodhd_api_key", cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("set EODHD_API_KEY before running: %w", err)
	}
	client := eodhd.NewClient(key,
		eodhd.WithBaseURL(cfg.BaseURL),
		eodhd.WithRateLimit(cfg.RateLimit),
		eodhd.WithTimeout(cfg.GetTimeout()),
		eodhd.WithLogger(a.Logger),
	)
	return prices.NewService(client, a.Storage, a.Logger), nil
}
