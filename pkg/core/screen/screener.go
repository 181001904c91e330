// Package screen applies named numeric thresholds to the metrics table to
// shortlist LBO candidates.
package screen

import (
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// Direction says which side of the threshold passes.
type Direction int

const (
	// Minimum keeps records with value >= threshold.
	Minimum Direction = iota
	// Maximum keeps records with value <= threshold.
	Maximum
)

func (d Direction) String() string {
	if d == Minimum {
		return "min"
	}
	return "max"
}

// Criterion is one declarative screening rule: a named threshold applied to a
// single metric column in a fixed comparison direction.
type Criterion struct {
	Name      string    `json:"name"`
	Metric    string    `json:"metric"`
	Direction Direction `json:"direction"`
	Threshold float64   `json:"threshold"`
}

// Passes evaluates the criterion against one record. A record missing the
// metric fails: the screen only admits companies it can actually measure.
func (c Criterion) Passes(rec models.MetricsRecord) bool {
	v := rec.Get(c.Metric)
	if v.Missing() {
		return false
	}
	if c.Direction == Minimum {
		return v.Float() >= c.Threshold
	}
	return v.Float() <= c.Threshold
}

// Criteria is the full rule set. Rules are logically independent; they are
// applied in slice order only so the audit log shows incremental attrition.
type Criteria []Criterion

// Thresholds groups the six standard thresholds as user-adjustable values.
type Thresholds struct {
	MinLTMEBITDA       float64 `json:"min_ltm_ebitda" yaml:"min_ltm_ebitda"`
	MaxEVEBITDA        float64 `json:"max_ev_ebitda" yaml:"max_ev_ebitda"`
	MaxNetDebtEBITDA   float64 `json:"max_net_debt_ebitda" yaml:"max_net_debt_ebitda"`
	MinRevenueCAGR     float64 `json:"min_revenue_cagr" yaml:"min_revenue_cagr"`
	MaxMarginStdDev    float64 `json:"max_margin_std_dev" yaml:"max_margin_std_dev"`
	MaxCapexPctOfSales float64 `json:"max_capex_pct_of_sales" yaml:"max_capex_pct_of_sales"`
}

// DefaultThresholds are the calibration defaults for a classic LBO profile:
// meaningful scale, moderate valuation, headroom for new debt, steady growth,
// stable margins, and light capital needs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLTMEBITDA:       50_000_000,
		MaxEVEBITDA:        12.0,
		MaxNetDebtEBITDA:   2.0,
		MinRevenueCAGR:     0.03,
		MaxMarginStdDev:    0.15,
		MaxCapexPctOfSales: 0.05,
	}
}

// Build expands the thresholds into the declarative criteria table.
func (t Thresholds) Build() Criteria {
	return Criteria{
		{Name: "Size", Metric: models.MetricLTMEBITDA, Direction: Minimum, Threshold: t.MinLTMEBITDA},
		{Name: "Valuation", Metric: models.MetricEVEBITDA, Direction: Maximum, Threshold: t.MaxEVEBITDA},
		{Name: "Leverage", Metric: models.MetricNetDebtEBITDA, Direction: Maximum, Threshold: t.MaxNetDebtEBITDA},
		{Name: "Growth", Metric: models.MetricRevenueCAGR, Direction: Minimum, Threshold: t.MinRevenueCAGR},
		{Name: "Stability", Metric: models.MetricEBITDAMarginStd, Direction: Maximum, Threshold: t.MaxMarginStdDev},
		{Name: "Capital Intensity", Metric: models.MetricCapexPctSales, Direction: Maximum, Threshold: t.MaxCapexPctOfSales},
	}
}

// FilterLog records one criterion's attrition for auditability.
type FilterLog struct {
	Criterion string  `json:"criterion"`
	Metric    string  `json:"metric"`
	Direction string  `json:"direction"`
	Threshold float64 `json:"threshold"`
	Before    int     `json:"before"`
	After     int     `json:"after"`
}

// Result is the surviving subset plus the per-criterion audit log.
type Result struct {
	Survivors []models.MetricsRecord `json:"survivors"`
	Log       []FilterLog            `json:"log"`
}

// Run applies every criterion to the metrics table. Pure and deterministic:
// identical inputs always yield identical results, and the surviving set is
// the intersection of the per-criterion pass sets regardless of rule order.
func Run(records []models.MetricsRecord, criteria Criteria) Result {
	res := Result{Survivors: records, Log: make([]FilterLog, 0, len(criteria))}
	for _, c := range criteria {
		before := len(res.Survivors)
		kept := res.Survivors[:0:0]
		for _, rec := range res.Survivors {
			if c.Passes(rec) {
				kept = append(kept, rec)
			}
		}
		res.Survivors = kept
		res.Log = append(res.Log, FilterLog{
			Criterion: c.Name,
			Metric:    c.Metric,
			Direction: c.Direction.String(),
			Threshold: c.Threshold,
			Before:    before,
			After:     len(kept),
		})
		logrus.WithFields(logrus.Fields{
			"criterion": c.Name,
			"metric":    c.Metric,
			"before":    before,
			"after":     len(kept),
		}).Debug("screen filter applied")
	}
	return res
}
