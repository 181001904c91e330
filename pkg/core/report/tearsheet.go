// Package report renders per-candidate investment tear sheets.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// TearSheet bundles everything the tear-sheet view needs for one candidate.
type TearSheet struct {
	Record   models.MetricsRecord
	Result   lbo.Result
	Grid     *lbo.SensitivityGrid
	Criteria screen.Criteria
}

// Markdown renders the tear sheet as a markdown document: key return
// metrics, sources & uses, the value-creation bridge, criteria analysis,
// and the sensitivity tables.
func (t TearSheet) Markdown() string {
	var b strings.Builder

	name := t.Record.CompanyName
	if name == "" {
		name = t.Record.Ticker
	}
	fmt.Fprintf(&b, "# %s (%s)\n\n", name, t.Record.Ticker)
	if t.Record.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n\n", t.Record.Sector)
	}

	fmt.Fprintf(&b, "## Projected Returns\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| IRR | %.1f%% |\n", t.Result.IRR*100)
	fmt.Fprintf(&b, "| MOIC | %.2fx |\n", t.Result.MOIC)
	fmt.Fprintf(&b, "| Entry EV/EBITDA | %.2fx |\n", t.Result.EntryMultiple)
	fmt.Fprintf(&b, "| Exit EV/EBITDA | %.2fx |\n", t.Result.ExitMultiple)
	fmt.Fprintf(&b, "| Holding Period | %d years |\n\n", t.Result.HoldingYears)

	su := t.Result.SourcesUses
	fmt.Fprintf(&b, "## Sources & Uses\n\n")
	fmt.Fprintf(&b, "| Sources | Amount | Uses | Amount |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| New Debt | %s | Purchase of Company | %s |\n", money(su.NewDebt), money(su.PurchasePrice))
	fmt.Fprintf(&b, "| Sponsor Equity | %s | Fees & Expenses | %s |\n\n", money(su.SponsorEquity), money(su.Fees))

	br := t.Result.Bridge
	fmt.Fprintf(&b, "## Value Creation Bridge\n\n")
	fmt.Fprintf(&b, "| Component | Contribution |\n|---|---|\n")
	fmt.Fprintf(&b, "| EBITDA Growth | %s |\n", money(br.EBITDAGrowth))
	fmt.Fprintf(&b, "| Multiple Expansion | %s |\n", money(br.MultipleExpansion))
	fmt.Fprintf(&b, "| Deleveraging | %s |\n", money(br.Deleveraging))
	fmt.Fprintf(&b, "| **Total Equity Gain** | %s |\n\n", money(br.Total))

	t.writeCriteria(&b)
	if t.Grid != nil {
		t.writeGrid(&b, "IRR Sensitivity", t.Grid.IRR, func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		})
		t.writeGrid(&b, "MOIC Sensitivity", t.Grid.MOIC, func(v float64) string {
			return fmt.Sprintf("%.2fx", v)
		})
	}

	return b.String()
}

func (t TearSheet) writeCriteria(b *strings.Builder) {
	if len(t.Criteria) == 0 {
		return
	}
	fmt.Fprintf(b, "## Screening Criteria Analysis\n\n")
	for _, c := range t.Criteria {
		v := t.Record.Get(c.Metric)
		cmp := "<"
		if c.Direction == screen.Minimum {
			cmp = ">"
		}
		if v.Missing() {
			fmt.Fprintf(b, "- **%s**: %s not available (threshold: %s%s)\n", c.Name, c.Metric, cmp, formatThreshold(c))
			continue
		}
		fmt.Fprintf(b, "- **%s**: %s of %s (threshold: %s%s)\n", c.Name, c.Metric, formatMetric(c.Metric, v.Float()), cmp, formatThreshold(c))
	}
	fmt.Fprintf(b, "\n")
}

func (t TearSheet) writeGrid(b *strings.Builder, title string, cells [][]float64, format func(float64) string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| Entry \\ Exit |")
	for _, exit := range t.Grid.ExitMultiples {
		fmt.Fprintf(b, " %.1fx |", exit)
	}
	fmt.Fprintf(b, "\n|---|")
	for range t.Grid.ExitMultiples {
		fmt.Fprintf(b, "---|")
	}
	fmt.Fprintf(b, "\n")
	for i, entry := range t.Grid.EntryMultiples {
		fmt.Fprintf(b, "| %.1fx |", entry)
		for j := range t.Grid.ExitMultiples {
			v := cells[i][j]
			if math.IsNaN(v) {
				fmt.Fprintf(b, " n/a |")
				continue
			}
			fmt.Fprintf(b, " %s |", format(v))
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, "\n")
}

// HTML renders the tear sheet to HTML for the dashboard.
func (t TearSheet) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(t.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("report: render tear sheet: %w", err)
	}
	return buf.String(), nil
}

// money formats a dollar amount at millions/billions scale.
func money(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	}
	return fmt.Sprintf("$%.0f", v)
}

// formatMetric renders a metric value in its natural unit: dollars for
// EBITDA, turns for multiples, percent for rates.
func formatMetric(metric string, v float64) string {
	switch metric {
	case models.MetricLTMEBITDA:
		return money(v)
	case models.MetricEVEBITDA, models.MetricNetDebtEBITDA:
		return fmt.Sprintf("%.2fx", v)
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func formatThreshold(c screen.Criterion) string {
	return formatMetric(c.Metric, c.Threshold)
}
