package models

import (
	"encoding/json"
	"math"
)

// Metric is a screening metric value. Missing values are carried as NaN in
// memory (so incomplete companies stay in the metrics table with gaps) and
// marshal to JSON null.
type Metric float64

// Missing reports whether the value could not be computed.
func (m Metric) Missing() bool { return math.IsNaN(float64(m)) }

// Float returns the underlying value (NaN when missing).
func (m Metric) Float() float64 { return float64(m) }

// MissingMetric is the canonical missing marker.
func MissingMetric() Metric { return Metric(math.NaN()) }

// MarshalJSON encodes missing values as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Missing() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

// UnmarshalJSON decodes null back into the missing marker.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = MissingMetric()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric(v)
	return nil
}

// Metric names. These are the fixed column set of the metrics table; the
// screener references metrics by these keys.
const (
	MetricLTMEBITDA       = "LTM EBITDA"
	MetricEVEBITDA        = "EV/EBITDA"
	MetricNetDebtEBITDA   = "Net Debt/EBITDA"
	MetricRevenueCAGR     = "Revenue CAGR"
	MetricEBITDAMarginStd = "EBITDA Margin Std Dev"
	MetricCapexPctSales   = "CapEx as % of Sales"
)

// MetricNames lists every metric column in display order.
func MetricNames() []string {
	return []string{
		MetricLTMEBITDA,
		MetricEVEBITDA,
		MetricNetDebtEBITDA,
		MetricRevenueCAGR,
		MetricEBITDAMarginStd,
		MetricCapexPctSales,
	}
}

// MetricsRecord is one row of the screening metrics table. Computed once per
// run from a single FinancialStatement and MarketSnapshot; immutable after.
type MetricsRecord struct {
	Ticker      string            `json:"ticker"`
	CompanyName string            `json:"company_name"`
	Sector      string            `json:"sector"`
	Values      map[string]Metric `json:"values"`
}

// Get returns the named metric, missing when the column is absent.
func (r MetricsRecord) Get(name string) Metric {
	if v, ok := r.Values[name]; ok {
		return v
	}
	return MissingMetric()
}

// MarketSnapshot is the current market valuation picture for one company, as
// returned by the market data connector. Optional vendor fields are Metric so
// absent data stays distinguishable from zero.
type MarketSnapshot struct {
	Ticker          string `json:"ticker"`
	CompanyName     string `json:"company_name"`
	Sector          string `json:"sector"`
	Industry        string `json:"industry"`
	MarketCap       Metric `json:"market_cap"`
	EnterpriseValue Metric `json:"enterprise_value"`
	TotalDebt       Metric `json:"total_debt"`
	TotalCash       Metric `json:"total_cash"`
	// EBITDA is the vendor's own LTM EBITDA figure, used as a fallback when
	// the filing does not yield one.
	EBITDA Metric `json:"ebitda"`
}
