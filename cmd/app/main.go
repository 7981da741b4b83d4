package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketsim/internal/app"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, *configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Background Asset Sync (company names and logos)
	go bootstrap.SyncAssets(ctx)

	// 5. Watchlist refresh loop
	cfg := bootstrap.Config
	interval := time.Duration(cfg.Refresh.IntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		for _, symbol := range cfg.Watchlist {
			price, err := bootstrap.Prices.ResolvePrice(ctx, symbol)
			if err != nil {
				slog.Warn("price unavailable", slog.String("symbol", symbol))
				continue
			}
			slog.Info("quote",
				slog.String("symbol", symbol),
				slog.String("name", bootstrap.Prices.ResolveCompanyName(ctx, symbol)),
				slog.String("price", price.String()),
			)
		}
		snap := bootstrap.Metrics.Snapshot()
		slog.Debug("resolver metrics",
			slog.Uint64("cache_hits", snap.CacheHits),
			slog.Uint64("provider_calls", snap.ProviderCalls),
			slog.Uint64("unavailable", snap.Unavailable),
		)
	}
	refresh()

	slog.InfoContext(ctx, "price service operational",
		slog.Int("watchlist", len(cfg.Watchlist)),
		slog.Duration("refresh_interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down gracefully...")
			// Flush outside the canceled signal context so a slow store
			// write still gets a bounded window.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			bootstrap.Shutdown(flushCtx)
			cancel()
			return
		case <-ticker.C:
			refresh()
		}
	}
}
