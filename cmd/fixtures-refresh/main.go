package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vodeneev/footstats/internal/pkg/apifootball"
	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/logging"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
	"github.com/Vodeneev/footstats/internal/refresh"
)

const defaultConfigPath = "configs/production.yaml"

// fixtures-refresh imports a league season (-league/-season) or, by default,
// re-syncs the recent fixtures once and prints the report.
func main() {
	var (
		configPath string
		leagueID   int64
		season     int
	)

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Int64Var(&leagueID, "league", 0, "API-Football league id to import")
	flag.IntVar(&season, "season", 0, "Season to import with -league (defaults to stats.current_season)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, closer, err := logging.SetupLogger(&cfg.Logging, "fixtures-refresh"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	} else {
		defer closer.Close()
	}

	store, err := storage.OpenFixtureStore(cfg)
	if err != nil {
		log.Fatalf("fixtures-refresh: failed to initialize fixture storage: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := refresh.NewRefresher(store, apifootball.NewClient(&cfg.APIFootball), cfg.Refresh)

	if leagueID != 0 {
		if season == 0 {
			season = cfg.Stats.CurrentSeason
		}
		n, err := r.Import(ctx, leagueID, season)
		if err != nil {
			slog.Error("Import failed", "league_id", leagueID, "season", season, "error", err)
			os.Exit(1)
		}
		slog.Info("Import done", "fixtures", n)
		return
	}

	report, err := r.Run(ctx)
	if err != nil {
		slog.Error("Refresh failed", "error", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
