package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/api/screening"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/api/settings"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/api/tearsheet"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/config"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/connectors/market"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/connectors/secdata"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	configPath := flag.String("config", "", "path to config file (yaml or hjson)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	// Postgres is optional: without DATABASE_URL everything falls back to
	// file caches under the cache dir.
	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			logrus.Warnf("database unavailable, using file caches: %v", err)
		}
	}
	defer store.Close()

	marketCfg := market.DefaultConfig()
	if cfg.Market.BaseURL != "" {
		marketCfg.BaseURL = cfg.Market.BaseURL
	}
	marketCfg.APIKey = cfg.Market.APIKey
	marketClient := market.New(marketCfg)
	defer marketClient.Close()

	secCfg := secdata.DefaultConfig()
	if cfg.SEC.BaseURL != "" {
		secCfg.BaseURL = cfg.SEC.BaseURL
	}
	secCfg.APIKey = cfg.SEC.APIKey
	stmtCache := store.NewStatementCache(store.GetPool(), filepath.Join(cfg.CacheDir, "statements"))
	secClient := secdata.New(secCfg, stmtCache)
	defer secClient.Close()

	runRepo := store.NewRunRepo()

	// Screening endpoints
	screeningHandler := screening.NewHandler(marketClient, secClient, runRepo, cfg.Workers, cfg.UniverseFile, cfg.Criteria, cfg.Assumptions)
	http.HandleFunc("/api/run", screeningHandler.HandleRun)
	http.HandleFunc("/api/metrics", screeningHandler.HandleMetrics)
	http.HandleFunc("/api/results", screeningHandler.HandleResults)
	http.HandleFunc("/api/screen", screeningHandler.HandleScreen)

	// Tear sheet endpoints
	tearsheetHandler := tearsheet.NewHandler(screeningHandler)
	http.HandleFunc("/api/tearsheet", tearsheetHandler.HandleTearSheet)

	// Settings endpoints
	settingsHandler := settings.NewHandler(screeningHandler)
	http.HandleFunc("/api/settings", settingsHandler.HandleSettings)

	fmt.Printf("API server starting on %s...\n", cfg.ListenAddr)
	fmt.Println("  - POST /api/run        (run the screening pipeline)")
	fmt.Println("  - GET  /api/metrics    (metrics table from latest run)")
	fmt.Println("  - GET  /api/results    (full latest run report)")
	fmt.Println("  - POST /api/screen     (re-screen with new criteria)")
	fmt.Println("  - GET  /api/tearsheet  (?ticker=X&format=html|md)")
	fmt.Println("  - GET/POST /api/settings")

	if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
		logrus.Fatalf("server failed to start: %v", err)
	}
}
