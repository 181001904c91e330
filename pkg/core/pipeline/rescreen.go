package pipeline

import (
	"sort"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
)

// Rescreen re-runs the screen and the LBO models over an existing report's
// metrics table with new criteria, without refetching any data. This is the
// path behind the dashboard's interactive threshold sliders: metrics are
// immutable per run, only the filters and models downstream of them move.
func Rescreen(base *RunReport, criteria screen.Criteria, assumptions lbo.Assumptions) *RunReport {
	report := &RunReport{
		RunID:      base.RunID,
		StartedAt:  base.StartedAt,
		Duration:   base.Duration,
		Universe:   base.Universe,
		Metrics:    base.Metrics,
		Statements: base.Statements,
		Grids:      make(map[string]*lbo.SensitivityGrid),
		Skips:      make(map[string]string),
	}
	for ticker, reason := range base.Skips {
		report.Skips[ticker] = reason
	}

	report.Screen = screen.Run(report.Metrics, criteria)
	for _, rec := range report.Screen.Survivors {
		model := lbo.New(rec, assumptions)
		res, err := model.Run()
		if err != nil {
			report.Skips[rec.Ticker] = skipReason(err)
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
	sort.Slice(report.LBO, func(i, j int) bool {
		return report.LBO[i].IRR > report.LBO[j].IRR
	})
	return report
}
