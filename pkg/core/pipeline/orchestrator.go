// Package pipeline runs the end-to-end screening flow: universe in, metrics
// table, candidate shortlist, and per-candidate LBO results out.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/metrics"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/store"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// MarketDataSource provides current market snapshots.
type MarketDataSource interface {
	CompanyInfo(ctx context.Context, ticker string) (*models.MarketSnapshot, error)
}

// FilingSource provides parsed financial statements.
type FilingSource interface {
	Statements(ctx context.Context, ticker string) (*models.FinancialStatement, error)
}

// RunReport is the complete outcome of one pipeline run. Everything the
// presentation layer shows comes from here.
type RunReport struct {
	RunID      string                                `json:"run_id"`
	StartedAt  time.Time                             `json:"started_at"`
	Duration   time.Duration                         `json:"duration"`
	Universe   []string                              `json:"universe"`
	Metrics    []models.MetricsRecord                `json:"metrics"`
	Statements map[string]*models.FinancialStatement `json:"-"`
	Screen     screen.Result                         `json:"screen"`
	LBO        []lbo.Result                          `json:"lbo"`
	Grids      map[string]*lbo.SensitivityGrid       `json:"grids"`
	// Skips records tickers excluded from LBO modeling or data gathering,
	// keyed by ticker with a human-readable reason.
	Skips map[string]string `json:"skips"`
}

// Orchestrator wires the sources to the deterministic core. Single-company
// failures are recorded and skipped; they never abort the batch.
type Orchestrator struct {
	market      MarketDataSource
	filings     FilingSource
	criteria    screen.Criteria
	assumptions lbo.Assumptions
	workers     int
	repo        store.RunRepository
	log         *logrus.Entry
}

// New creates an orchestrator. repo may be nil to skip persistence.
func New(market MarketDataSource, filings FilingSource, criteria screen.Criteria, assumptions lbo.Assumptions, workers int, repo store.RunRepository) *Orchestrator {
	if workers <= 0 {
		workers = 10
	}
	return &Orchestrator{
		market:      market,
		filings:     filings,
		criteria:    criteria,
		assumptions: assumptions,
		workers:     workers,
		repo:        repo,
		log:         logrus.WithField("component", "pipeline"),
	}
}

// fetched is the result of gathering data for one ticker.
type fetched struct {
	ticker string
	record *models.MetricsRecord
	stmt   *models.FinancialStatement
	reason string
}

// Run executes the full pipeline over the given tickers.
func (o *Orchestrator) Run(ctx context.Context, tickers []string) (*RunReport, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := o.log.WithField("run_id", runID)
	log.WithField("universe", len(tickers)).Info("starting screening run")

	report := &RunReport{
		RunID:      runID,
		StartedAt:  start,
		Universe:   tickers,
		Statements: make(map[string]*models.FinancialStatement),
		Grids:      make(map[string]*lbo.SensitivityGrid),
		Skips:      make(map[string]string),
	}

	// 1. Fan out data gathering and metric computation.
	results := o.gather(ctx, tickers)
	for _, f := range results {
		if f.record == nil {
			report.Skips[f.ticker] = f.reason
			continue
		}
		report.Metrics = append(report.Metrics, *f.record)
		report.Statements[f.ticker] = f.stmt
	}
	// Workers finish out of order; keep the table in universe order.
	sort.Slice(report.Metrics, func(i, j int) bool {
		return report.Metrics[i].Ticker < report.Metrics[j].Ticker
	})
	log.WithFields(logrus.Fields{
		"metrics": len(report.Metrics),
		"skipped": len(report.Skips),
	}).Info("metrics table built")

	// 2. Screen.
	report.Screen = screen.Run(report.Metrics, o.criteria)
	log.WithField("survivors", len(report.Screen.Survivors)).Info("screen complete")

	// 3. LBO model per survivor.
	for _, rec := range report.Screen.Survivors {
		model := lbo.New(rec, o.assumptions)
		res, err := model.Run()
		if err != nil {
			report.Skips[rec.Ticker] = skipReason(err)
			log.WithField("ticker", rec.Ticker).Infof("model infeasible: %v", err)
			continue
		}
		grid, err := model.Sensitivity()
		if err != nil {
			report.Skips[rec.Ticker] = skipReason(err)
			continue
		}
		report.LBO = append(report.LBO, *res)
		report.Grids[rec.Ticker] = grid
	}
	// Shortlist is presented best-first.
	sort.Slice(report.LBO, func(i, j int) bool {
		return report.LBO[i].IRR > report.LBO[j].IRR
	})

	report.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"candidates": len(report.LBO),
		"duration":   report.Duration.Round(time.Millisecond),
	}).Info("screening run complete")

	o.persist(ctx, report)
	return report, nil
}

// gather fetches market and filing data for every ticker with bounded
// concurrency and computes each MetricsRecord.
func (o *Orchestrator) gather(ctx context.Context, tickers []string) []fetched {
	jobs := make(chan string)
	out := make(chan fetched)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				out <- o.process(ctx, ticker)
			}
		}()
	}

	go func() {
		for _, t := range tickers {
			jobs <- t
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	var results []fetched
	for f := range out {
		results = append(results, f)
	}
	return results
}

func (o *Orchestrator) process(ctx context.Context, ticker string) fetched {
	market, err := o.market.CompanyInfo(ctx, ticker)
	if err != nil {
		return fetched{ticker: ticker, reason: "no market data: " + err.Error()}
	}
	stmt, err := o.filings.Statements(ctx, ticker)
	if err != nil {
		return fetched{ticker: ticker, reason: "no filing data: " + err.Error()}
	}
	rec := metrics.Calculate(stmt, market)
	return fetched{ticker: ticker, record: &rec, stmt: stmt}
}

func (o *Orchestrator) persist(ctx context.Context, report *RunReport) {
	if o.repo == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		o.log.Warnf("marshal run report: %v", err)
		return
	}
	rec := store.RunRecord{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		DurationMs: report.Duration.Milliseconds(),
		Universe:   len(report.Universe),
		Survivors:  len(report.Screen.Survivors),
		Payload:    payload,
	}
	if err := o.repo.SaveRun(ctx, rec); err != nil {
		o.log.Warnf("persist run: %v", err)
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, lbo.ErrInsufficientData):
		return "insufficient data for LBO model"
	case errors.Is(err, lbo.ErrOverLeveraged):
		return "over-leveraged: entry equity non-positive"
	}
	return err.Error()
}
