// Package screening exposes the pipeline over HTTP: run it, read the metrics
// table, and re-screen cached metrics with analyst-supplied criteria.
package screening

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/pipeline"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/store"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/universe"
)

// Handler holds dependencies for screening endpoints. Criteria and
// assumptions are mutable at runtime; each pipeline run picks up the
// current values.
type Handler struct {
	mu           sync.RWMutex
	market       pipeline.MarketDataSource
	filings      pipeline.FilingSource
	repo         store.RunRepository
	workers      int
	universeFile string

	criteria    screen.Thresholds
	assumptions lbo.Assumptions
	last        *pipeline.RunReport

	log *logrus.Entry
}

// NewHandler creates a new screening handler. universeFile is the default
// ticker universe used when a run request names no tickers.
func NewHandler(market pipeline.MarketDataSource, filings pipeline.FilingSource, repo store.RunRepository, workers int, universeFile string, criteria screen.Thresholds, assumptions lbo.Assumptions) *Handler {
	return &Handler{
		market:       market,
		filings:      filings,
		repo:         repo,
		workers:      workers,
		universeFile: universeFile,
		criteria:     criteria,
		assumptions:  assumptions,
		log:          logrus.WithField("component", "api.screening"),
	}
}

type RunRequest struct {
	Tickers []string `json:"tickers"`
}

type ScreenRequest struct {
	Criteria screen.Thresholds `json:"criteria"`
}

// HandleRun executes a full pipeline run and returns the report.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if r.Body != nil {
		// An empty or absent body means "screen the configured universe".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	tickers := req.Tickers
	if len(tickers) == 0 {
		loaded, err := universe.Load(h.universeFile)
		if err != nil {
			http.Error(w, "load universe: "+err.Error(), http.StatusInternalServerError)
			return
		}
		tickers = loaded
	}

	h.mu.RLock()
	criteria := h.criteria.Build()
	assumptions := h.assumptions
	h.mu.RUnlock()

	orch := pipeline.New(h.market, h.filings, criteria, assumptions, h.workers, h.repo)
	report, err := orch.Run(r.Context(), tickers)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.last = report
	h.mu.Unlock()

	writeJSON(w, report)
}

// HandleMetrics returns the metrics table from the most recent run.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	report := h.Latest()
	if report == nil {
		http.Error(w, "no run available; POST /api/run first", http.StatusNotFound)
		return
	}
	writeJSON(w, report.Metrics)
}

// HandleResults returns the full report from the most recent run.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	report := h.Latest()
	if report == nil {
		http.Error(w, "no run available; POST /api/run first", http.StatusNotFound)
		return
	}
	writeJSON(w, report)
}

// HandleScreen re-screens the cached metrics table with new criteria, without
// refetching data. The new thresholds become the handler's current criteria.
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	base := h.last
	if base == nil {
		h.mu.Unlock()
		http.Error(w, "no run available; POST /api/run first", http.StatusNotFound)
		return
	}
	h.criteria = req.Criteria
	assumptions := h.assumptions
	h.mu.Unlock()

	report := pipeline.Rescreen(base, req.Criteria.Build(), assumptions)

	h.mu.Lock()
	h.last = report
	h.mu.Unlock()

	h.log.WithField("survivors", len(report.Screen.Survivors)).Info("re-screen complete")
	writeJSON(w, report)
}

// Latest returns the most recent run report, or nil before the first run.
func (h *Handler) Latest() *pipeline.RunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Criteria returns the current screening criteria.
func (h *Handler) Criteria() screen.Criteria {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.criteria.Build()
}

// Thresholds returns the current raw threshold settings.
func (h *Handler) Thresholds() screen.Thresholds {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.criteria
}

// Assumptions returns the current transaction assumptions.
func (h *Handler) Assumptions() lbo.Assumptions {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.assumptions
}

// SetAssumptions replaces the transaction assumptions used by future runs.
func (h *Handler) SetAssumptions(a lbo.Assumptions) {
	h.mu.Lock()
	h.assumptions = a
	h.mu.Unlock()
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
