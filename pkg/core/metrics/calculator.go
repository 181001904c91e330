package metrics

import (
	"math"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// cagrWindows are the lookback windows (in years) tried for revenue CAGR,
// longest first. A 4-year lookback over annual data is the "5Y" metric; when
// history is short we degrade to the widest window the data supports.
var cagrWindows = []int{4, 2, 1}

// capexWindows are the averaging windows (in periods) tried for capital
// intensity, widest first.
var capexWindows = []int{3, 2, 1}

// Calculate derives a MetricsRecord for one company from its statements and
// market snapshot. Any concept that cannot be resolved yields a missing value
// in the record rather than an error, so incomplete companies still surface
// in the metrics table and the screen decides their fate.
func Calculate(stmt *models.FinancialStatement, market *models.MarketSnapshot) models.MetricsRecord {
	rec := models.MetricsRecord{
		Ticker:      stmt.Ticker,
		CompanyName: market.CompanyName,
		Sector:      market.Sector,
		Values:      make(map[string]models.Metric, 6),
	}

	revenue, hasRevenue := resolveSeries(stmt, ConceptRevenue)
	opInc, hasOpInc := resolveSeries(stmt, ConceptOperatingIncome)
	dAndA, hasDandA := resolveSeries(stmt, ConceptDepreciation)
	capex, hasCapex := resolveSeries(stmt, ConceptCapEx)

	// EBITDA is rebuilt as operating income + D&A. Both lines must resolve;
	// periods covered by only one side contribute the other at zero.
	var ebitda models.Series
	hasEBITDA := hasOpInc && hasDandA
	if hasEBITDA {
		ebitda = models.AddFillZero(opInc, dAndA)
	}

	rec.Values[models.MetricLTMEBITDA] = ltmEBITDA(ebitda, hasEBITDA, market)
	rec.Values[models.MetricRevenueCAGR] = revenueCAGR(revenue, hasRevenue)
	rec.Values[models.MetricEBITDAMarginStd] = marginStdDev(revenue, ebitda, hasRevenue && hasEBITDA)
	rec.Values[models.MetricCapexPctSales] = capexPctSales(capex, revenue, hasCapex && hasRevenue)

	ltm := rec.Values[models.MetricLTMEBITDA]
	rec.Values[models.MetricNetDebtEBITDA] = netDebtEBITDA(market, ltm)
	rec.Values[models.MetricEVEBITDA] = evEBITDA(market, ltm)

	return rec
}

// ltmEBITDA takes the latest rebuilt EBITDA, falling back to the market
// vendor's figure when the statements cannot produce one.
func ltmEBITDA(ebitda models.Series, ok bool, market *models.MarketSnapshot) models.Metric {
	if ok && ebitda.Len() > 0 {
		return models.Metric(ebitda.Latest())
	}
	if market != nil && !market.EBITDA.Missing() {
		return market.EBITDA
	}
	return models.MissingMetric()
}

// revenueCAGR computes (end/start)^(1/years)-1 over the widest supported
// window. Missing when either endpoint is absent or the start is non-positive.
func revenueCAGR(revenue models.Series, ok bool) models.Metric {
	if !ok || revenue.Len() < 2 {
		return models.MissingMetric()
	}
	for _, years := range cagrWindows {
		if revenue.Len() <= years {
			continue
		}
		start := revenue.At(years)
		end := revenue.At(0)
		if start <= 0 || end <= 0 {
			continue
		}
		return models.Metric(math.Pow(end/start, 1.0/float64(years)) - 1)
	}
	return models.MissingMetric()
}

// marginStdDev is the sample standard deviation of EBITDA/Revenue across all
// periods where both are present. Needs at least two such periods.
func marginStdDev(revenue, ebitda models.Series, ok bool) models.Metric {
	if !ok {
		return models.MissingMetric()
	}
	rev, ebd := models.Align(revenue, ebitda)
	var margins []float64
	for i := 0; i < rev.Len(); i++ {
		if rev.Values[i] == 0 {
			continue
		}
		margins = append(margins, ebd.Values[i]/rev.Values[i])
	}
	if len(margins) < 2 {
		return models.MissingMetric()
	}
	return models.Metric(sampleStdDev(margins))
}

// capexPctSales averages |CapEx| over Revenue across the widest window both
// series support. CapEx is reported negative on the cash flow statement, so
// the numerator is taken in absolute value.
func capexPctSales(capex, revenue models.Series, ok bool) models.Metric {
	if !ok {
		return models.MissingMetric()
	}
	for _, n := range capexWindows {
		if capex.Len() < n || revenue.Len() < n {
			continue
		}
		var capexSum, revSum float64
		for i := 0; i < n; i++ {
			capexSum += math.Abs(capex.At(i))
			revSum += revenue.At(i)
		}
		if revSum <= 0 {
			continue
		}
		return models.Metric(capexSum / revSum)
	}
	return models.MissingMetric()
}

// netDebtEBITDA is (total debt - total cash) / LTM EBITDA for the latest
// period. Vendors omit debt or cash for some issuers; an absent side counts
// as zero, matching how the snapshot provider reports "no debt".
func netDebtEBITDA(market *models.MarketSnapshot, ltm models.Metric) models.Metric {
	if market == nil || ltm.Missing() || ltm.Float() <= 0 {
		return models.MissingMetric()
	}
	netDebt := zeroIfMissing(market.TotalDebt) - zeroIfMissing(market.TotalCash)
	return models.Metric(netDebt / ltm.Float())
}

// evEBITDA is enterprise value / LTM EBITDA for the latest period.
func evEBITDA(market *models.MarketSnapshot, ltm models.Metric) models.Metric {
	if market == nil || market.EnterpriseValue.Missing() || ltm.Missing() || ltm.Float() <= 0 {
		return models.MissingMetric()
	}
	return models.Metric(market.EnterpriseValue.Float() / ltm.Float())
}

func zeroIfMissing(m models.Metric) float64 {
	if m.Missing() {
		return 0
	}
	return m.Float()
}

// sampleStdDev is the n-1 denominator standard deviation.
func sampleStdDev(values []float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}
