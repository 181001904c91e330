// Package lbo runs the simplified leveraged buyout return model: entry
// capitalization, a multi-year operating projection with a cash-sweep debt
// schedule, exit, and the resulting equity returns.
package lbo

import (
	"errors"
	"fmt"
	"math"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// Model infeasibility conditions. Both mark the candidate as skipped, never
// abort a batch.
var (
	// ErrInsufficientData means LTM EBITDA or the entry multiple could not be
	// established for the candidate.
	ErrInsufficientData = errors.New("lbo: insufficient data")
	// ErrOverLeveraged means the assumed debt exceeds the purchase price, so
	// the sponsor's equity check would be zero or negative.
	ErrOverLeveraged = errors.New("lbo: entry equity non-positive")
)

// Assumptions are the transaction and projection assumptions. Multiples are
// turns of EBITDA, rates are decimals per year.
type Assumptions struct {
	ProjectionYears     int     `json:"projection_years" yaml:"projection_years"`
	EntryLeverage       float64 `json:"entry_leverage" yaml:"entry_leverage"`
	ExitMultiplePremium float64 `json:"exit_multiple_premium" yaml:"exit_multiple_premium"`
	InterestRate        float64 `json:"interest_rate" yaml:"interest_rate"`
	TaxRate             float64 `json:"tax_rate" yaml:"tax_rate"`
	// FeeRate splits entry EV into purchase price and transaction fees on the
	// uses side of the sources & uses view.
	FeeRate float64 `json:"fee_rate" yaml:"fee_rate"`
	// DandAPctEBITDA approximates D&A for the tax calculation.
	DandAPctEBITDA float64 `json:"danda_pct_ebitda" yaml:"danda_pct_ebitda"`
	// NWCPctDelta scales the year-over-year EBITDA change into a working
	// capital investment.
	NWCPctDelta float64 `json:"nwc_pct_delta" yaml:"nwc_pct_delta"`
	// DebtSweepRate is the share of free cash flow swept into debt paydown.
	// 1 is a full sweep; 0 holds debt flat for the whole period.
	DebtSweepRate float64 `json:"debt_sweep_rate" yaml:"debt_sweep_rate"`
	// DefaultGrowth and DefaultCapexPct stand in when the candidate's record
	// is missing revenue CAGR or capital intensity.
	DefaultGrowth   float64 `json:"default_growth" yaml:"default_growth"`
	DefaultCapexPct float64 `json:"default_capex_pct" yaml:"default_capex_pct"`
}

// DefaultAssumptions returns the base-case transaction assumptions.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		ProjectionYears:     5,
		EntryLeverage:       6.0,
		ExitMultiplePremium: 0.0,
		InterestRate:        0.07,
		TaxRate:             0.25,
		FeeRate:             0.02,
		DandAPctEBITDA:      0.15,
		NWCPctDelta:         0.05,
		DebtSweepRate:       1.0,
		DefaultGrowth:       0.03,
		DefaultCapexPct:     0.03,
	}
}

// YearProjection is one projected operating year.
type YearProjection struct {
	Year         int     `json:"year"`
	EBITDA       float64 `json:"ebitda"`
	UnleveredFCF float64 `json:"unlevered_fcf"`
}

// DebtYear is one row of the debt schedule.
type DebtYear struct {
	Year          int     `json:"year"`
	BeginningDebt float64 `json:"beginning_debt"`
	Interest      float64 `json:"interest"`
	FCF           float64 `json:"fcf"`
	Paydown       float64 `json:"paydown"`
	EndingDebt    float64 `json:"ending_debt"`
}

// SourcesUses breaks down how the transaction is funded and spent.
type SourcesUses struct {
	NewDebt       float64 `json:"new_debt"`
	SponsorEquity float64 `json:"sponsor_equity"`
	PurchasePrice float64 `json:"purchase_price"`
	Fees          float64 `json:"fees"`
}

// Bridge decomposes the equity gain into its value-creation components.
// EBITDAGrowth + MultipleExpansion + Deleveraging = ExitEquity - EntryEquity.
type Bridge struct {
	EBITDAGrowth      float64 `json:"ebitda_growth"`
	MultipleExpansion float64 `json:"multiple_expansion"`
	Deleveraging      float64 `json:"deleveraging"`
	Total             float64 `json:"total"`
}

// Result is the full outcome of one model run.
type Result struct {
	Ticker        string      `json:"ticker"`
	HoldingYears  int         `json:"holding_years"`
	EntryMultiple float64     `json:"entry_multiple"`
	ExitMultiple  float64     `json:"exit_multiple"`
	EntryEV       float64     `json:"entry_ev"`
	EntryDebt     float64     `json:"entry_debt"`
	EntryEquity   float64     `json:"entry_equity"`
	ExitEBITDA    float64     `json:"exit_ebitda"`
	ExitEV        float64     `json:"exit_ev"`
	ExitDebt      float64     `json:"exit_debt"`
	ExitEquity    float64     `json:"exit_equity"`
	MOIC          float64     `json:"moic"`
	IRR           float64     `json:"irr"`
	SourcesUses   SourcesUses `json:"sources_uses"`
	Bridge        Bridge      `json:"bridge"`
	DebtSchedule  []DebtYear  `json:"debt_schedule"`
}

// Model runs LBO scenarios for a single candidate. The operating projection
// and debt schedule depend only on LTM EBITDA, growth, and leverage, so they
// are computed once and shared across the sensitivity grid.
type Model struct {
	rec  models.MetricsRecord
	a    Assumptions
	proj []YearProjection
	debt []DebtYear
}

// New builds a model for one candidate record.
func New(rec models.MetricsRecord, a Assumptions) *Model {
	if a.ProjectionYears <= 0 {
		a.ProjectionYears = DefaultAssumptions().ProjectionYears
	}
	return &Model{rec: rec, a: a}
}

// Run executes the base case: entry at the candidate's current EV/EBITDA,
// exit at entry plus the configured premium.
func (m *Model) Run() (*Result, error) {
	entry, err := m.baseEntryMultiple()
	if err != nil {
		return nil, err
	}
	return m.RunAt(entry, entry+m.a.ExitMultiplePremium)
}

// RunAt executes the model with explicit entry and exit multiples, holding
// every other assumption fixed. Used directly by the sensitivity grid.
func (m *Model) RunAt(entryMultiple, exitMultiple float64) (*Result, error) {
	ltm := m.rec.Get(models.MetricLTMEBITDA)
	if ltm.Missing() || ltm.Float() <= 0 {
		return nil, fmt.Errorf("%w: %s has no positive LTM EBITDA", ErrInsufficientData, m.rec.Ticker)
	}
	if math.IsNaN(entryMultiple) {
		return nil, fmt.Errorf("%w: %s has no entry multiple", ErrInsufficientData, m.rec.Ticker)
	}

	entryEV := ltm.Float() * entryMultiple
	entryDebt := ltm.Float() * m.a.EntryLeverage
	entryEquity := entryEV - entryDebt
	if entryEquity <= 0 {
		return nil, fmt.Errorf("%w: %s at %.2fx entry with %.2fx leverage", ErrOverLeveraged, m.rec.Ticker, entryMultiple, m.a.EntryLeverage)
	}

	m.ensureProjection(ltm.Float())
	schedule := m.ensureDebtSchedule(entryDebt)
	finalDebt := schedule[len(schedule)-1].EndingDebt

	exitEBITDA := m.proj[len(m.proj)-1].EBITDA
	exitEV := exitEBITDA * exitMultiple
	exitEquity := exitEV - finalDebt

	moic := exitEquity / entryEquity
	years := m.a.ProjectionYears
	irr := -1.0
	if moic > 0 {
		irr = math.Pow(moic, 1.0/float64(years)) - 1
	}

	return &Result{
		Ticker:        m.rec.Ticker,
		HoldingYears:  years,
		EntryMultiple: entryMultiple,
		ExitMultiple:  exitMultiple,
		EntryEV:       entryEV,
		EntryDebt:     entryDebt,
		EntryEquity:   entryEquity,
		ExitEBITDA:    exitEBITDA,
		ExitEV:        exitEV,
		ExitDebt:      finalDebt,
		ExitEquity:    exitEquity,
		MOIC:          moic,
		IRR:           irr,
		SourcesUses: SourcesUses{
			NewDebt:       entryDebt,
			SponsorEquity: entryEquity,
			PurchasePrice: entryEV * (1 - m.a.FeeRate),
			Fees:          entryEV * m.a.FeeRate,
		},
		Bridge: Bridge{
			EBITDAGrowth:      (exitEBITDA - ltm.Float()) * entryMultiple,
			MultipleExpansion: (exitMultiple - entryMultiple) * exitEBITDA,
			Deleveraging:      entryDebt - finalDebt,
			Total:             exitEquity - entryEquity,
		},
		DebtSchedule: schedule,
	}, nil
}

func (m *Model) baseEntryMultiple() (float64, error) {
	mult := m.rec.Get(models.MetricEVEBITDA)
	if mult.Missing() {
		return 0, fmt.Errorf("%w: %s has no EV/EBITDA multiple", ErrInsufficientData, m.rec.Ticker)
	}
	return mult.Float(), nil
}

// ensureProjection builds the operating projection once. Each year EBITDA
// compounds at the candidate's historical revenue CAGR (or the default), and
// unlevered FCF is NOPAT + D&A - CapEx - change in NWC.
func (m *Model) ensureProjection(ltmEBITDA float64) {
	if m.proj != nil {
		return
	}
	growth := metricOr(m.rec.Get(models.MetricRevenueCAGR), m.a.DefaultGrowth)
	capexPct := metricOr(m.rec.Get(models.MetricCapexPctSales), m.a.DefaultCapexPct)

	m.proj = make([]YearProjection, m.a.ProjectionYears)
	prevEBITDA := ltmEBITDA
	for i := 0; i < m.a.ProjectionYears; i++ {
		ebitda := ltmEBITDA * math.Pow(1+growth, float64(i+1))
		dAndA := ebitda * m.a.DandAPctEBITDA
		ebit := ebitda - dAndA
		taxes := ebit * m.a.TaxRate
		nopat := ebit - taxes
		deltaNWC := (ebitda - prevEBITDA) * m.a.NWCPctDelta
		if i == 0 {
			deltaNWC = 0
		}
		capex := ebitda * capexPct
		m.proj[i] = YearProjection{
			Year:         i + 1,
			EBITDA:       ebitda,
			UnleveredFCF: nopat + dAndA - capex - deltaNWC,
		}
		prevEBITDA = ebitda
	}
}

// ensureDebtSchedule models the annual cash sweep: interest accrues on the
// opening balance, and available cash pays principal down, floored at zero.
// A deficit year simply pays nothing down.
func (m *Model) ensureDebtSchedule(entryDebt float64) []DebtYear {
	if m.debt != nil && len(m.debt) > 0 && m.debt[0].BeginningDebt == entryDebt {
		return m.debt
	}
	schedule := make([]DebtYear, len(m.proj))
	balance := entryDebt
	for i, yr := range m.proj {
		interest := balance * m.a.InterestRate
		available := (yr.UnleveredFCF - interest) * m.a.DebtSweepRate
		paydown := math.Min(balance, math.Max(0, available))
		schedule[i] = DebtYear{
			Year:          yr.Year,
			BeginningDebt: balance,
			Interest:      interest,
			FCF:           yr.UnleveredFCF,
			Paydown:       paydown,
			EndingDebt:    balance - paydown,
		}
		balance -= paydown
	}
	m.debt = schedule
	return schedule
}

func metricOr(m models.Metric, fallback float64) float64 {
	if m.Missing() {
		return fallback
	}
	return m.Float()
}
