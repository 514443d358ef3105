package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kiasilver/rozegar-sub005/internal/ai"
	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/feed"
	"github.com/kiasilver/rozegar-sub005/internal/notifier"
	"github.com/kiasilver/rozegar-sub005/internal/prices"
	"github.com/kiasilver/rozegar-sub005/internal/processor"
	"github.com/kiasilver/rozegar-sub005/internal/publisher"
	"github.com/kiasilver/rozegar-sub005/internal/scheduler"
	"github.com/kiasilver/rozegar-sub005/internal/scraper"
	"github.com/kiasilver/rozegar-sub005/internal/server"
	"github.com/kiasilver/rozegar-sub005/internal/storage"
	"github.com/kiasilver/rozegar-sub005/internal/validator"
)

func main() {
	// .env is optional; production supplies real environment variables.
	_ = godotenv.Load()

	slog.Info("Starting content automation service...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Unknown timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	store, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Critical error connecting to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	var providers []ai.Provider
	gemini, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	if err != nil {
		slog.Warn("Gemini provider unavailable", "error", err)
	} else if gemini != nil {
		providers = append(providers, gemini)
	}
	if openai := ai.NewOpenAIProvider("openai", cfg.OpenAIBaseURL, cfg.OpenAIAPIKey); openai != nil {
		providers = append(providers, openai)
	}
	gateway := ai.NewGateway(store, providers...)

	fetcher := feed.NewFetcher(cfg.RequestTimeout, cfg.MaxFeedItems)
	telegram := notifier.New()
	website := publisher.New(store)
	proc := processor.New(store, fetcher, gateway, telegram, website, cfg)

	carScraper := scraper.New(cfg)
	carRunner := prices.NewCarPriceRunner(store, carScraper, telegram, cfg, loc)

	market := prices.NewMarketClient(scraper.NewChromeRenderer(cfg.ScrapeTimeout))
	ticker := prices.NewTicker(store, market, telegram, cfg, loc)

	sched := scheduler.New(store, proc, carRunner, ticker, loc)
	if err := sched.Start(ctx); err != nil {
		slog.Error("Critical error starting scheduler", "error", err)
		os.Exit(1)
	}

	srv := server.New(store, proc, carRunner, ticker, sched, validator.New(), cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT: stop scheduling new work first,
	// then drain in-flight HTTP requests.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}
