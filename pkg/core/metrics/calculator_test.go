package metrics

import (
	"math"
	"testing"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// buildStatement assembles a five-year statement set with 10% annual revenue
// growth, a constant 20% EBITDA margin, and 4% capital intensity.
func buildStatement(ticker string) *models.FinancialStatement {
	periods := []string{"2024-12-31", "2023-12-31", "2022-12-31", "2021-12-31", "2020-12-31"}
	revenues := []float64{146.41, 133.10, 121.00, 110.00, 100.00}

	income := map[string]map[string]float64{
		"Revenues":            {},
		"OperatingIncomeLoss": {},
	}
	cashflow := map[string]map[string]float64{
		"DepreciationAndAmortization": {},
		"CapitalExpenditures":         {},
	}
	for i, p := range periods {
		rev := revenues[i]
		income["Revenues"][p] = rev
		income["OperatingIncomeLoss"][p] = 0.17 * rev
		cashflow["DepreciationAndAmortization"][p] = 0.03 * rev
		// CapEx reported as a cash outflow.
		cashflow["CapitalExpenditures"][p] = -0.04 * rev
	}
	return &models.FinancialStatement{
		Ticker:   ticker,
		Income:   models.NewStatementTable(income),
		CashFlow: models.NewStatementTable(cashflow),
	}
}

func snapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Ticker:          "TEST",
		CompanyName:     "Test Industries",
		Sector:          "Industrials",
		EnterpriseValue: models.Metric(250.0),
		TotalDebt:       models.Metric(50.0),
		TotalCash:       models.Metric(20.0),
		EBITDA:          models.Metric(29.0),
	}
}

func approx(t *testing.T, name string, got models.Metric, want float64) {
	t.Helper()
	if got.Missing() {
		t.Fatalf("%s: expected %f, got missing", name, want)
	}
	if math.Abs(got.Float()-want) > 1e-9 {
		t.Errorf("%s: expected %f, got %f", name, want, got.Float())
	}
}

func TestCalculateFullRecord(t *testing.T) {
	rec := Calculate(buildStatement("TEST"), snapshot())

	if rec.Ticker != "TEST" || rec.CompanyName != "Test Industries" {
		t.Errorf("identity fields not carried: %+v", rec)
	}

	// EBITDA = OperatingIncome + D&A = 0.17*rev + 0.03*rev = 0.20*rev.
	// Latest revenue 146.41 => LTM EBITDA = 29.282.
	approx(t, "LTM EBITDA", rec.Get(models.MetricLTMEBITDA), 29.282)

	// 4-year window: (146.41/100)^(1/4) - 1 = 1.1 - 1 = 0.10.
	approx(t, "Revenue CAGR", rec.Get(models.MetricRevenueCAGR), 0.10)

	// Margin is exactly 0.20 every period, so the sample std dev is 0.
	approx(t, "Margin Std Dev", rec.Get(models.MetricEBITDAMarginStd), 0.0)

	// 3-period window, |capex| = 0.04*rev each year:
	// sum|capex| / sum(rev) = 0.04 regardless of the revenue path.
	approx(t, "CapEx % Sales", rec.Get(models.MetricCapexPctSales), 0.04)

	// Net debt = 50 - 20 = 30; 30 / 29.282.
	approx(t, "Net Debt/EBITDA", rec.Get(models.MetricNetDebtEBITDA), 30.0/29.282)

	// 250 / 29.282.
	approx(t, "EV/EBITDA", rec.Get(models.MetricEVEBITDA), 250.0/29.282)
}

func TestRevenueCAGRDegradesWindow(t *testing.T) {
	// Only three periods of data: the 4-year window is unsupported, so the
	// 2-year window applies. (121/100)^(1/2) - 1 = 0.10.
	income := map[string]map[string]float64{
		"Revenues": {
			"2024-12-31": 121.0,
			"2023-12-31": 110.0,
			"2022-12-31": 100.0,
		},
		"OperatingIncomeLoss": {"2024-12-31": 20.0},
	}
	stmt := &models.FinancialStatement{
		Ticker: "SHORT",
		Income: models.NewStatementTable(income),
	}
	rec := Calculate(stmt, snapshot())
	approx(t, "Revenue CAGR", rec.Get(models.MetricRevenueCAGR), 0.10)
}

func TestRevenueCAGRNonPositiveStart(t *testing.T) {
	// Start of every candidate window is <= 0: CAGR must come back missing,
	// not as a complex-power artifact.
	income := map[string]map[string]float64{
		"Revenues": {
			"2024-12-31": 120.0,
			"2023-12-31": -5.0,
			"2022-12-31": 0.0,
		},
	}
	stmt := &models.FinancialStatement{Ticker: "NEG", Income: models.NewStatementTable(income)}
	rec := Calculate(stmt, snapshot())
	if !rec.Get(models.MetricRevenueCAGR).Missing() {
		t.Errorf("expected missing CAGR, got %f", rec.Get(models.MetricRevenueCAGR).Float())
	}
}

func TestMissingEBITDAPropagates(t *testing.T) {
	// No operating income, no D&A, and no vendor EBITDA either: everything
	// downstream of LTM EBITDA is missing, but the record itself survives.
	income := map[string]map[string]float64{
		"Revenues": {"2024-12-31": 100.0, "2023-12-31": 90.0},
	}
	stmt := &models.FinancialStatement{Ticker: "GAP", Income: models.NewStatementTable(income)}
	mkt := snapshot()
	mkt.EBITDA = models.MissingMetric()

	rec := Calculate(stmt, mkt)
	for _, name := range []string{models.MetricLTMEBITDA, models.MetricEVEBITDA, models.MetricNetDebtEBITDA, models.MetricEBITDAMarginStd} {
		if !rec.Get(name).Missing() {
			t.Errorf("%s: expected missing, got %f", name, rec.Get(name).Float())
		}
	}
	// Revenue-only metrics still compute.
	if rec.Get(models.MetricRevenueCAGR).Missing() {
		t.Error("Revenue CAGR should not depend on EBITDA")
	}
}

func TestVendorEBITDAFallback(t *testing.T) {
	// Statements cannot rebuild EBITDA, but the vendor has a figure: the
	// fallback keeps the candidate measurable.
	income := map[string]map[string]float64{
		"Revenues": {"2024-12-31": 100.0},
	}
	stmt := &models.FinancialStatement{Ticker: "VND", Income: models.NewStatementTable(income)}
	mkt := snapshot()
	mkt.EBITDA = models.Metric(40.0)

	rec := Calculate(stmt, mkt)
	approx(t, "LTM EBITDA", rec.Get(models.MetricLTMEBITDA), 40.0)
	// EV/EBITDA = 250/40 = 6.25 off the vendor figure.
	approx(t, "EV/EBITDA", rec.Get(models.MetricEVEBITDA), 6.25)
}

func TestSynonymPriority(t *testing.T) {
	// Both a high-priority and a low-priority revenue label are present with
	// different values; the first synonym in the table must win.
	income := map[string]map[string]float64{
		"Revenues":        {"2024-12-31": 100.0, "2023-12-31": 80.0},
		"SalesRevenueNet": {"2024-12-31": 999.0, "2023-12-31": 999.0},
	}
	stmt := &models.FinancialStatement{Ticker: "SYN", Income: models.NewStatementTable(income)}

	s, ok := resolveSeries(stmt, ConceptRevenue)
	if !ok {
		t.Fatal("revenue should resolve")
	}
	if s.Latest() != 100.0 {
		t.Errorf("expected prioritized label value 100, got %f", s.Latest())
	}
}

func TestNetDebtMissingSidesCountAsZero(t *testing.T) {
	stmt := buildStatement("ND")
	mkt := snapshot()
	mkt.TotalDebt = models.MissingMetric()
	// Net debt = 0 - 20 = -20 over LTM EBITDA 29.282.
	rec := Calculate(stmt, mkt)
	approx(t, "Net Debt/EBITDA", rec.Get(models.MetricNetDebtEBITDA), -20.0/29.282)
}

func TestNegativeEBITDAKillsRatios(t *testing.T) {
	// Operating losses bigger than D&A: LTM EBITDA is negative, so the two
	// ratio metrics are meaningless and come back missing.
	income := map[string]map[string]float64{
		"Revenues":            {"2024-12-31": 100.0},
		"OperatingIncomeLoss": {"2024-12-31": -30.0},
	}
	cashflow := map[string]map[string]float64{
		"DepreciationAndAmortization": {"2024-12-31": 5.0},
	}
	stmt := &models.FinancialStatement{
		Ticker:   "LOSS",
		Income:   models.NewStatementTable(income),
		CashFlow: models.NewStatementTable(cashflow),
	}
	rec := Calculate(stmt, snapshot())

	approx(t, "LTM EBITDA", rec.Get(models.MetricLTMEBITDA), -25.0)
	if !rec.Get(models.MetricEVEBITDA).Missing() {
		t.Error("EV/EBITDA should be missing for negative EBITDA")
	}
	if !rec.Get(models.MetricNetDebtEBITDA).Missing() {
		t.Error("Net Debt/EBITDA should be missing for negative EBITDA")
	}
}

func TestMarginStdDevSampleFormula(t *testing.T) {
	// Margins 0.10, 0.20, 0.30: mean 0.20, squared deviations 0.01 + 0 + 0.01,
	// sample variance 0.02/2 = 0.01, std dev 0.1.
	income := map[string]map[string]float64{
		"Revenues": {
			"2024-12-31": 100.0,
			"2023-12-31": 100.0,
			"2022-12-31": 100.0,
		},
		"OperatingIncomeLoss": {
			"2024-12-31": 10.0,
			"2023-12-31": 20.0,
			"2022-12-31": 30.0,
		},
	}
	cashflow := map[string]map[string]float64{
		"DepreciationAndAmortization": {
			"2024-12-31": 0.0,
			"2023-12-31": 0.0,
			"2022-12-31": 0.0,
		},
	}
	stmt := &models.FinancialStatement{
		Ticker:   "VAR",
		Income:   models.NewStatementTable(income),
		CashFlow: models.NewStatementTable(cashflow),
	}
	rec := Calculate(stmt, snapshot())
	approx(t, "Margin Std Dev", rec.Get(models.MetricEBITDAMarginStd), 0.1)
}
