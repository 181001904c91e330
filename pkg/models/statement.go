package models

import (
	"math"
	"sort"
)

// Statement keys as produced by the filing connector.
const (
	StatementIncome   = "Income Statement"
	StatementBalance  = "Balance Sheet"
	StatementCashFlow = "Cash Flow"
)

// StatementTable holds one financial statement across fiscal periods.
// Line-item labels are non-canonical: filings use whatever XBRL concept names
// the issuer chose, so consumers resolve concepts through synonym lists rather
// than assuming a fixed schema.
type StatementTable struct {
	// Periods are fiscal period identifiers (end dates), newest first.
	Periods []string `json:"periods"`
	// Items maps line-item label -> period -> reported value.
	Items map[string]map[string]float64 `json:"items"`
}

// NewStatementTable builds a table from raw label/period/value triples and
// normalizes period ordering to newest-first.
func NewStatementTable(items map[string]map[string]float64) StatementTable {
	periodSet := make(map[string]bool)
	for _, byPeriod := range items {
		for p := range byPeriod {
			periodSet[p] = true
		}
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	// Period identifiers are ISO dates, so lexical sort is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return StatementTable{Periods: periods, Items: items}
}

// Empty reports whether the table carries no data.
func (t StatementTable) Empty() bool {
	return len(t.Items) == 0 || len(t.Periods) == 0
}

// Series returns the values for a single label, newest first, restricted to
// periods where the label is present. The bool is false when the label does
// not appear at all.
func (t StatementTable) Series(label string) (Series, bool) {
	byPeriod, ok := t.Items[label]
	if !ok || len(byPeriod) == 0 {
		return Series{}, false
	}
	s := Series{}
	for _, p := range t.Periods {
		if v, present := byPeriod[p]; present {
			s.Periods = append(s.Periods, p)
			s.Values = append(s.Values, v)
		}
	}
	if len(s.Values) == 0 {
		return Series{}, false
	}
	return s, true
}

// Series is a time series of reported values, newest first.
type Series struct {
	Periods []string
	Values  []float64
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Values) }

// Latest returns the newest observation.
func (s Series) Latest() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[0]
}

// At returns the i-th newest observation (0 = latest).
func (s Series) At(i int) float64 {
	if i < 0 || i >= len(s.Values) {
		return math.NaN()
	}
	return s.Values[i]
}

// Align inner-joins two series on period, preserving newest-first order.
func Align(a, b Series) (Series, Series) {
	bByPeriod := make(map[string]float64, len(b.Periods))
	for i, p := range b.Periods {
		bByPeriod[p] = b.Values[i]
	}
	var outA, outB Series
	for i, p := range a.Periods {
		if v, ok := bByPeriod[p]; ok {
			outA.Periods = append(outA.Periods, p)
			outA.Values = append(outA.Values, a.Values[i])
			outB.Periods = append(outB.Periods, p)
			outB.Values = append(outB.Values, v)
		}
	}
	return outA, outB
}

// AddFillZero unions two series on period, treating a missing observation on
// either side as zero. Mirrors how EBITDA is rebuilt from operating income
// plus D&A when the two lines cover slightly different period sets.
func AddFillZero(a, b Series) Series {
	sum := make(map[string]float64)
	for i, p := range a.Periods {
		sum[p] += a.Values[i]
	}
	for i, p := range b.Periods {
		sum[p] += b.Values[i]
	}
	periods := make([]string, 0, len(sum))
	for p := range sum {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	out := Series{}
	for _, p := range periods {
		out.Periods = append(out.Periods, p)
		out.Values = append(out.Values, sum[p])
	}
	return out
}

// FinancialStatement is one company's multi-year statement data: the three
// primary statements parsed from its latest annual filing.
type FinancialStatement struct {
	Ticker   string         `json:"ticker"`
	Income   StatementTable `json:"income_statement"`
	Balance  StatementTable `json:"balance_sheet"`
	CashFlow StatementTable `json:"cash_flow"`
}

// Table returns the statement table for a statement key.
func (f *FinancialStatement) Table(key string) StatementTable {
	switch key {
	case StatementIncome:
		return f.Income
	case StatementBalance:
		return f.Balance
	case StatementCashFlow:
		return f.CashFlow
	}
	return StatementTable{}
}

// Complete reports whether all three statements parsed non-empty.
func (f *FinancialStatement) Complete() bool {
	return !f.Income.Empty() && !f.Balance.Empty() && !f.CashFlow.Empty()
}
