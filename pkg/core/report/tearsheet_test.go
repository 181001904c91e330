package report

import (
	"strings"
	"testing"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

func sampleSheet(t *testing.T) TearSheet {
	t.Helper()
	rec := models.MetricsRecord{
		Ticker:      "TEST",
		CompanyName: "Test Industries",
		Sector:      "Industrials",
		Values: map[string]models.Metric{
			models.MetricLTMEBITDA:     models.Metric(100_000_000),
			models.MetricEVEBITDA:      models.Metric(8.0),
			models.MetricNetDebtEBITDA: models.Metric(1.2),
			models.MetricRevenueCAGR:   models.Metric(0.05),
			models.MetricCapexPctSales: models.Metric(0.03),
		},
	}
	a := lbo.DefaultAssumptions()
	a.EntryLeverage = 7.5 // pushes the low-entry grid rows infeasible
	m := lbo.New(rec, a)
	res, err := m.Run()
	if err != nil {
		t.Fatalf("model run failed: %v", err)
	}
	grid, err := m.Sensitivity()
	if err != nil {
		t.Fatalf("sensitivity failed: %v", err)
	}
	return TearSheet{
		Record:   rec,
		Result:   *res,
		Grid:     grid,
		Criteria: screen.DefaultThresholds().Build(),
	}
}

func TestMarkdownSections(t *testing.T) {
	md := sampleSheet(t).Markdown()

	for _, want := range []string{
		"# Test Industries (TEST)",
		"## Projected Returns",
		"## Sources & Uses",
		"## Value Creation Bridge",
		"## Screening Criteria Analysis",
		"## IRR Sensitivity",
		"## MOIC Sensitivity",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Infeasible grid cells render as n/a, never as NaN text.
	if !strings.Contains(md, "n/a") {
		t.Error("expected n/a cells for the over-leveraged rows")
	}
	if strings.Contains(md, "NaN") {
		t.Error("NaN must not leak into the rendered sheet")
	}

	// Dollar amounts render at millions scale: new debt is 7.5 x 100M.
	if !strings.Contains(md, "$750.0M") {
		t.Errorf("expected $750.0M of new debt in sheet:\n%s", md)
	}
}

func TestMarkdownMissingCriterionMetric(t *testing.T) {
	sheet := sampleSheet(t)
	sheet.Record.Values[models.MetricEBITDAMarginStd] = models.MissingMetric()

	md := sheet.Markdown()
	if !strings.Contains(md, "not available") {
		t.Error("missing criterion metric should render as not available")
	}
}

func TestMarkdownWithoutGrid(t *testing.T) {
	// A sheet can be rendered before its grid is computed: the sensitivity
	// sections are simply omitted, everything else still renders.
	sheet := sampleSheet(t)
	sheet.Grid = nil

	md := sheet.Markdown()
	if strings.Contains(md, "Sensitivity") {
		t.Error("nil grid should omit the sensitivity sections")
	}
	if !strings.Contains(md, "## Projected Returns") {
		t.Error("return metrics should still render without a grid")
	}
}

func TestHTMLRendersTables(t *testing.T) {
	html, err := sampleSheet(t).HTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Markdown pipe tables must come through the table extension as <table>.
	if !strings.Contains(html, "<table>") {
		t.Error("expected rendered <table> elements")
	}
	if !strings.Contains(html, "<h1") {
		t.Error("expected rendered heading")
	}
}

func TestMoneyScales(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2_500_000_000, "$2.50B"},
		{750_000_000, "$750.0M"},
		{-1_200_000_000, "$-1.20B"},
		{999, "$999"},
	}
	for _, c := range cases {
		if got := money(c.in); got != c.want {
			t.Errorf("money(%f) = %q, expected %q", c.in, got, c.want)
		}
	}
}
