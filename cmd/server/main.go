package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/condlookup/internal/access"
	"github.com/dgallion1/condlookup/internal/api"
	"github.com/dgallion1/condlookup/internal/config"
	"github.com/dgallion1/condlookup/internal/generate"
	"github.com/dgallion1/condlookup/internal/lookup"
	"github.com/dgallion1/condlookup/internal/search"
	"github.com/dgallion1/condlookup/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(); err != nil {
		log.Error("load .env", "error", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize generation.
	stats := generate.NewStats(cfg.StatsWindow)
	claude := generate.NewClaudeGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.GenerateTimeout, stats, log)

	// Initialize feature access.
	var checker access.Checker
	var closeChecker func()
	if cfg.UseRemoteAccess() {
		rc := access.NewRemoteChecker(cfg.FeatureAccessURL, cfg.FeatureAccessAPIKey)
		checker, closeChecker = rc, rc.Close
		log.Info("feature access via remote service", "url", cfg.FeatureAccessURL)
	} else {
		qs, err := access.NewQuotaStore(cfg.QuotaDBPath, cfg.FreeDailyLookups)
		if err != nil {
			log.Error("open quota store", "error", err)
			os.Exit(1)
		}
		checker, closeChecker = qs, func() { qs.Close() }
		go pruneQuota(ctx, qs, log)
		log.Info("feature access via local quota", "db", cfg.QuotaDBPath, "daily_limit", cfg.FreeDailyLookups)
	}

	// Initialize lookups.
	links := search.NewBuilder(cfg.SearchPrimaryURL, cfg.SearchSecondaryURL)
	lookups := lookup.NewService(checker, claude, links, cfg.CacheTTL, log)
	lookups.Start(ctx)

	sessions, err := session.NewSigner(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		log.Error("init sessions", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	srv := api.NewServer(lookups, claude, stats, sessions, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: lookup.MaxLookupDuration(cfg.GenerateTimeout),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		lookups.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		cancel()
		closeChecker()
	}()

	log.Info("starting condlookup", "port", cfg.Port, "model", claude.Model())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// pruneQuota drops expired quota windows once an hour.
func pruneQuota(ctx context.Context, qs *access.QuotaStore, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := qs.Prune(ctx)
			if err != nil {
				log.Warn("prune quota", "error", err)
				continue
			}
			if n > 0 {
				log.Info("pruned quota rows", "rows", n)
			}
		}
	}
}
