// Command pipeline runs the screening pipeline once from the command line and
// prints the shortlist with projected returns.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/config"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/connectors/market"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/connectors/secdata"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/pipeline"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/report"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/store"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/universe"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to config file (yaml or hjson)")
	universeFile := flag.String("universe", "", "universe file (csv or xlsx), overrides config")
	tickerList := flag.String("tickers", "", "comma-separated tickers, overrides the universe file")
	sheetDir := flag.String("tearsheets", "", "directory to write markdown tear sheets into")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if *universeFile != "" {
		cfg.UniverseFile = *universeFile
	}

	var tickers []string
	if *tickerList != "" {
		for _, t := range strings.Split(*tickerList, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				tickers = append(tickers, t)
			}
		}
	} else {
		tickers, err = universe.Load(cfg.UniverseFile)
		if err != nil {
			logrus.Fatalf("load universe: %v", err)
		}
	}

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

	orch := pipeline.New(marketClient, secClient, cfg.Criteria.Build(), cfg.Assumptions, cfg.Workers, store.NewRunRepo())
	run, err := orch.Run(ctx, tickers)
	if err != nil {
		logrus.Fatalf("pipeline: %v", err)
	}

	printShortlist(run)

	if *sheetDir != "" {
		writeTearSheets(run, cfg, *sheetDir)
	}
}

func printShortlist(run *pipeline.RunReport) {
	fmt.Printf("\nScreened %d tickers, %d with metrics, %d survivors (run %s)\n\n",
		len(run.Universe), len(run.Metrics), len(run.Screen.Survivors), run.RunID)

	for _, f := range run.Screen.Log {
		fmt.Printf("  %-18s %4d -> %4d\n", f.Criterion, f.Before, f.After)
	}

	if len(run.LBO) == 0 {
		fmt.Println("\nNo candidates cleared the screen.")
		return
	}
	fmt.Printf("\n%-8s %-10s %-8s %-10s %-10s\n", "Ticker", "IRR", "MOIC", "Entry", "Exit")
	fmt.Println(strings.Repeat("-", 50))
	for _, res := range run.LBO {
		fmt.Printf("%-8s %-10s %-8s %-10s %-10s\n",
			res.Ticker,
			fmt.Sprintf("%.1f%%", res.IRR*100),
			fmt.Sprintf("%.2fx", res.MOIC),
			fmt.Sprintf("%.1fx", res.EntryMultiple),
			fmt.Sprintf("%.1fx", res.ExitMultiple))
	}

	if len(run.Skips) > 0 {
		fmt.Printf("\nSkipped %d tickers:\n", len(run.Skips))
		for ticker, reason := range run.Skips {
			fmt.Printf("  %-8s %s\n", ticker, reason)
		}
	}
}

func writeTearSheets(run *pipeline.RunReport, cfg *config.Config, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logrus.Fatalf("tear sheet dir: %v", err)
	}
	criteria := cfg.Criteria.Build()
	for _, res := range run.LBO {
		var sheet report.TearSheet
		sheet.Result = res
		sheet.Grid = run.Grids[res.Ticker]
		sheet.Criteria = criteria
		for _, rec := range run.Metrics {
			if rec.Ticker == res.Ticker {
				sheet.Record = rec
				break
			}
		}
		path := filepath.Join(dir, res.Ticker+".md")
		if err := os.WriteFile(path, []byte(sheet.Markdown()), 0o644); err != nil {
			logrus.Warnf("write %s: %v", path, err)
			continue
		}
		fmt.Printf("wrote %s\n", path)
	}
}
