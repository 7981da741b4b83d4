package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"marketsim/internal/infra"
	"marketsim/internal/infra/storage"
	"marketsim/internal/provider"
	"marketsim/internal/ratelimit"
	"marketsim/internal/service"

	"github.com/joho/godotenv"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Prices     *service.PriceService
	Downloader *infra.LogoDownloader
	Metrics    *infra.Metrics
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB,
// providers, resolver) and pre-warms the price cache from the store.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	slog.Info("Bootstrapping market-sim price service...")

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("database initialized")

	if opsState, err := store.LoadConfigMap(); err == nil {
		if last, ok := opsState["last_flush_at"]; ok {
			slog.Info("previous shutdown flush", slog.String("at", last))
		}
	}

	// 4. Initialize Logo Downloader
	downloader, err := infra.NewLogoDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader

	// 5. Wire the resolver: primary first, free fallbacks after
	finnhub := provider.NewFinnhubWithBaseURL(cfg.API.Finnhub.BaseURL, cfg.API.Finnhub.APIKey, cfg.API.Finnhub.BackupKey)
	providers := make([]provider.Provider, 0, 4)
	if finnhub.Configured() {
		providers = append(providers, finnhub)
	} else {
		slog.Warn("finnhub key missing, running on free fallbacks only")
	}
	providers = append(providers, provider.NewYahooWithBaseURL(cfg.API.Yahoo.BaseURL))
	if polygon := provider.NewPolygonWithBaseURL(cfg.API.Polygon.BaseURL, cfg.API.Polygon.APIKey); polygon.Configured() {
		providers = append(providers, polygon)
	}
	if alpaca := provider.NewAlpacaWithBaseURL(cfg.API.Alpaca.BaseURL, cfg.API.Alpaca.APIKey, cfg.API.Alpaca.SecretKey); alpaca.Configured() {
		providers = append(providers, alpaca)
	}

	b.Metrics = infra.NewMetrics()
	b.Prices = service.NewPriceService(service.Options{
		Providers:           providers,
		Profile:             finnhub,
		Store:               store,
		Governor:            ratelimit.NewGovernor(time.Duration(cfg.Cache.MinRequestInterval) * time.Second),
		Metrics:             b.Metrics,
		CacheTTL:            time.Duration(cfg.Cache.TTLSec) * time.Second,
		MaxCacheSize:        cfg.Cache.MaxSize,
		CompanyCacheTTL:     time.Duration(cfg.Cache.CompanyTTLSec) * time.Second,
		MaxCompanyCacheSize: cfg.Cache.MaxCompanySize,
	})

	// 6. Cold-start warm-up from the persistent store
	if _, err := b.Prices.PreloadCache(ctx); err != nil {
		slog.Warn("cache preload failed", slog.Any("error", err))
	}

	return nil
}

// SyncAssets resolves company profiles for the watchlist and downloads
// missing logos in the background.
func (b *Bootstrap) SyncAssets(ctx context.Context) {
	if len(b.Config.Watchlist) == 0 {
		return
	}
	slog.Info("starting asset synchronization", slog.Int("symbols", len(b.Config.Watchlist)))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, symbol := range b.Config.Watchlist {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			profile, err := b.Prices.ResolveCompanyProfile(ctx, sym)
			if err != nil {
				slog.Debug("profile lookup failed", slog.String("symbol", sym), slog.Any("error", err))
				return
			}

			path, err := b.Downloader.DownloadLogo(sym, profile.LogoURL)
			if err != nil {
				slog.Debug("logo download failed", slog.String("symbol", sym), slog.Any("error", err))
			} else {
				slog.Debug("logo ready", slog.String("symbol", sym), slog.String("path", path))
			}
		}(symbol)
	}

	wg.Wait()
	slog.Info("asset synchronization completed")
}

// Shutdown flushes the in-memory cache to the store, best effort. Failures
// are logged and swallowed so shutdown never hangs.
func (b *Bootstrap) Shutdown(ctx context.Context) {
	if err := b.Prices.FlushCache(ctx); err != nil {
		slog.Warn("shutdown flush failed", slog.Any("error", err))
		return
	}

	flushedAt := time.Now().UTC().Format(time.RFC3339)
	if err := b.Storage.SaveConfig("last_flush_at", flushedAt); err != nil {
		slog.Warn("failed to record flush time", slog.Any("error", err))
	}
	slog.Info("price cache flushed",
		slog.Int("entries", b.Prices.CachedQuoteCount()),
		slog.String("at", flushedAt),
	)
}
