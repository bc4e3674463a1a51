package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/footstats/internal/analysis"
	"github.com/Vodeneev/footstats/internal/api"
	"github.com/Vodeneev/footstats/internal/pkg/apifootball"
	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/logging"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
	"github.com/Vodeneev/footstats/internal/refresh"
	"github.com/Vodeneev/footstats/internal/scanner"
	"github.com/Vodeneev/footstats/internal/search"
)

const (
	defaultConfigPath = "configs/production.yaml"
	serviceName       = "statsd"
)

func main() {
	fmt.Println("Starting football stats service...")

	var configPath string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	fmt.Printf("Loading config from: %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, logCloser, err := logging.SetupLogger(&cfg.Logging, serviceName)
	if err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	} else {
		defer logCloser.Close()
		slog.Info("Logging initialized", "level", cfg.Logging.Level)
	}

	store, err := storage.OpenFixtureStore(cfg)
	if err != nil {
		log.Fatalf("statsd: failed to initialize fixture storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Error closing fixture storage", "error", err)
		}
	}()

	var statsCache storage.StatsCache
	if cfg.Redis.Enabled {
		redisCache, err := storage.NewRedisStatsCache(&cfg.Redis)
		if err != nil {
			// Без кэша сервис работает, только медленнее
			slog.Warn("Redis stats cache unavailable, continuing without cache", "error", err)
		} else {
			statsCache = redisCache
			defer redisCache.Close()
		}
	}

	engine := stats.NewEngine(stats.Options{StreakMinLength: cfg.Stats.StreakMinLength})
	searcher := search.NewSearcher(store, engine, cfg.Search, cfg.Location())

	deps := api.Deps{
		Store:    store,
		Cache:    statsCache,
		Engine:   engine,
		Searcher: searcher,
		Stats:    cfg.Stats,
		Location: cfg.Location(),
	}
	if cfg.Analysis.Enabled {
		cache := storage.NewLRUAnalysisCache(cfg.Analysis.CacheSize, cfg.Analysis.CacheTTL)
		deps.Analyzer = analysis.NewAnalyzer(cfg.Analysis, cache)
	}
	if cfg.APIFootball.APIKey != "" {
		deps.Refresher = refresh.NewRefresher(store, apifootball.NewClient(&cfg.APIFootball), cfg.Refresh)
	} else {
		slog.Info("API-Football key not set, fixture refresh disabled")
	}

	var notifier scanner.Notifier
	if cfg.Scanner.TelegramBotToken != "" && cfg.Scanner.TelegramChatID != 0 {
		tg, err := scanner.NewTelegramNotifier(cfg.Scanner.TelegramBotToken, cfg.Scanner.TelegramChatID)
		if err != nil {
			slog.Error("Telegram notifier unavailable, alerts will only be logged", "error", err)
		} else {
			notifier = tg
			defer tg.Stop()
		}
	}
	streakScanner, err := scanner.NewScanner(&cfg.Scanner, searcher, notifier)
	if err != nil {
		log.Fatalf("statsd: invalid scanner config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping service...")
		cancel()
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(api.NewHandler(deps), cfg.Server, streakScanner),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if err := streakScanner.Start(ctx); err != nil {
		slog.Error("Scanner failed", "error", err)
		cancel()
		<-ctx.Done()
	}

	slog.Info("Football stats service stopped")
}
