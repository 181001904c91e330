// Package tearsheet serves per-candidate investment tear sheets.
package tearsheet

import (
	"net/http"
	"strings"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/pipeline"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/report"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// ReportSource provides the latest pipeline results and screening criteria.
type ReportSource interface {
	Latest() *pipeline.RunReport
	Criteria() screen.Criteria
}

// Handler holds dependencies for tear-sheet endpoints.
type Handler struct {
	source ReportSource
}

// NewHandler creates a new tear-sheet handler.
func NewHandler(source ReportSource) *Handler {
	return &Handler{source: source}
}

// HandleTearSheet renders the tear sheet for one candidate from the latest
// run. Query params: ticker (required), format (md or html, default html).
func (h *Handler) HandleTearSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		http.Error(w, "ticker query param required", http.StatusBadRequest)
		return
	}
	run := h.source.Latest()
	if run == nil {
		http.Error(w, "no run available; POST /api/run first", http.StatusNotFound)
		return
	}

	sheet, ok := buildSheet(run, h.source.Criteria(), ticker)
	if !ok {
		http.Error(w, ticker+" is not on the current shortlist", http.StatusNotFound)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "md") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(sheet.Markdown()))
		return
	}
	html, err := sheet.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// buildSheet assembles the tear sheet inputs for one shortlisted ticker.
func buildSheet(run *pipeline.RunReport, criteria screen.Criteria, ticker string) (report.TearSheet, bool) {
	var result *models.MetricsRecord
	for i := range run.Metrics {
		if run.Metrics[i].Ticker == ticker {
			result = &run.Metrics[i]
			break
		}
	}
	if result == nil {
		return report.TearSheet{}, false
	}
	for _, res := range run.LBO {
		if res.Ticker == ticker {
			return report.TearSheet{
				Record:   *result,
				Result:   res,
				Grid:     run.Grids[ticker],
				Criteria: criteria,
			}, true
		}
	}
	return report.TearSheet{}, false
}
