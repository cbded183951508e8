package main

import (
	"fmt"

	"github.com/jwaldner/divvyarb/internal/cache"
	"github.com/jwaldner/divvyarb/internal/config"
	"github.com/jwaldner/divvyarb/internal/credentials"
	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/providers"
	"github.com/jwaldner/divvyarb/internal/providers/iex"
	"github.com/jwaldner/divvyarb/internal/providers/occ"
	"github.com/jwaldner/divvyarb/internal/providers/tradier"
	"github.com/jwaldner/divvyarb/internal/services"
)

// app holds everything a command needs for one pipeline run.
type app struct {
	cfg       *config.Config
	providers *providers.ProviderManager
	cache     *cache.Cache
	scans     *services.ScanService
}

// loadConfig reads the config file and starts logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	err = logger.InitWithOptions(logger.Options{
		Level:      cfg.Logging.LogLevel,
		File:       cfg.Logging.LogFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

// newApp loads credentials and builds the provider clients, cache and scan
// service.
func newApp(cfg *config.Config) (*app, error) {
	keys, err := credentials.NewStore(cfg.Credentials.Dir).LoadAll()
	if err != nil {
		return nil, err
	}

	dividends := iex.NewClient(iex.Config{
		BaseURL:           cfg.IEX.BaseURL,
		Token:             keys.IEXCloud,
		RequestsPerSecond: cfg.IEX.RequestsPerSecond,
		Timeout:           cfg.IEX.Timeout,
		MaxRetries:        cfg.IEX.MaxRetries,
		BatchSize:         cfg.IEX.BatchSize,
	})
	options := tradier.NewClient(tradier.Config{
		BaseURL:           cfg.Tradier.BaseURL,
		Bearer:            keys.TradierBearer,
		RequestsPerSecond: cfg.Tradier.RequestsPerSecond,
		Timeout:           cfg.Tradier.Timeout,
		MaxRetries:        cfg.Tradier.MaxRetries,
	}, tradier.NewRateBudget(cfg.Tradier.RateLimitThreshold, cfg.Tradier.RateLimitPause))
	memos := occ.NewClient(cfg.OCC.FeedURL, cfg.OCC.Timeout, cfg.OCC.MaxRetries)

	a := &app{
		cfg:       cfg,
		providers: providers.NewProviderManager(dividends, options, memos),
	}

	var universe services.UniverseCache
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			// Scanning without the cache is slower but still correct.
			logger.Warn.Printf("⚠️ Cache unavailable, continuing without it: %v", err)
		} else {
			a.cache = c
			universe = c
		}
	}

	a.scans = services.NewScanService(a.providers, universe, cfg)
	return a, nil
}

func (a *app) Close() {
	logger.Verbose.Printf("%s", a.providers.GetPerformanceReport())
	if err := a.providers.Close(); err != nil {
		logger.Warn.Printf("⚠️ Closing providers: %v", err)
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn.Printf("⚠️ Closing cache: %v", err)
		}
	}
	logger.Close()
}
