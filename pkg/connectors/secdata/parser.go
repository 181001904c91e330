// Package secdata sources multi-year financial statements from SEC EDGAR
// annual filings.
package secdata

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// XBRL statement keys in the filing JSON.
const (
	xbrlIncomeKey   = "StatementsOfIncome"
	xbrlBalanceKey  = "BalanceSheets"
	xbrlCashFlowKey = "StatementsOfCashFlows"
)

// xbrlFact is one reported fact for a concept.
type xbrlFact struct {
	Value   json.RawMessage `json:"value"`
	Segment json.RawMessage `json:"segment"`
	Period  json.RawMessage `json:"period"`
}

// xbrlPeriod is a duration or instant period object.
type xbrlPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Instant   string `json:"instant"`
}

// ParseXBRL converts a filing's XBRL-derived JSON into the three statement
// tables. Facts carrying a segment dimension are consolidated-by-segment
// breakdowns, not the headline line, and are skipped.
func ParseXBRL(ticker string, raw []byte) (*models.FinancialStatement, error) {
	var doc map[string]map[string][]xbrlFact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &models.FinancialStatement{
		Ticker:   ticker,
		Income:   parseStatement(doc[xbrlIncomeKey]),
		Balance:  parseStatement(doc[xbrlBalanceKey]),
		CashFlow: parseStatement(doc[xbrlCashFlowKey]),
	}, nil
}

func parseStatement(concepts map[string][]xbrlFact) models.StatementTable {
	items := make(map[string]map[string]float64)
	for concept, facts := range concepts {
		for _, fact := range facts {
			if len(fact.Segment) > 0 {
				continue
			}
			period := factPeriod(fact)
			if period == "" {
				continue
			}
			value, ok := factValue(fact)
			if !ok {
				continue
			}
			if items[concept] == nil {
				items[concept] = make(map[string]float64)
			}
			items[concept][period] = value
		}
	}
	if len(items) == 0 {
		return models.StatementTable{}
	}
	return models.NewStatementTable(items)
}

// factPeriod extracts the fiscal period identifier: the end date of a
// duration, the instant of a balance, or the bare string some filers use.
func factPeriod(fact xbrlFact) string {
	if len(fact.Period) == 0 {
		return ""
	}
	var obj xbrlPeriod
	if err := json.Unmarshal(fact.Period, &obj); err == nil {
		if obj.EndDate != "" {
			return obj.EndDate
		}
		if obj.Instant != "" {
			return obj.Instant
		}
	}
	var s string
	if err := json.Unmarshal(fact.Period, &s); err == nil {
		return s
	}
	return ""
}

// factValue coerces the reported value, which arrives as either a JSON
// number or a numeric string.
func factValue(fact xbrlFact) (float64, bool) {
	if len(fact.Value) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(fact.Value, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(fact.Value, &s); err == nil {
		return parseNumeric(s)
	}
	return 0, false
}

// ParseStatementHTML parses a rendered statement table (an EDGAR "R" file)
// into a StatementTable. The first header cell row gives the period end
// dates; each body row is a line item with one value per period.
// Used as a fallback when a filing has no XBRL JSON.
func ParseStatementHTML(html string) (models.StatementTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.StatementTable{}, err
	}

	items := make(map[string]map[string]float64)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var periods []string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			headers := row.Find("th")
			if headers.Length() > 1 && periods == nil {
				headers.Each(func(i int, th *goquery.Selection) {
					if i == 0 {
						return
					}
					periods = append(periods, strings.TrimSpace(th.Text()))
				})
				return
			}
			cells := row.Find("td")
			if cells.Length() < 2 || periods == nil {
				return
			}
			label := strings.TrimSpace(cells.First().Text())
			if label == "" {
				return
			}
			cells.Each(func(i int, td *goquery.Selection) {
				if i == 0 || i > len(periods) {
					return
				}
				if v, ok := parseNumeric(td.Text()); ok {
					if items[label] == nil {
						items[label] = make(map[string]float64)
					}
					items[label][periods[i-1]] = v
				}
			})
		})
		// First table with data wins: R files carry one statement per page.
		return len(items) == 0
	})

	if len(items) == 0 {
		return models.StatementTable{}, nil
	}
	return models.NewStatementTable(items), nil
}

// parseNumeric handles filing number formats: thousands separators, currency
// symbols, and accountant's parentheses for negatives.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	cleaner := strings.NewReplacer("$", "", ",", "", "(", "", ")", "", " ", "", " ", "")
	s = cleaner.Replace(s)
	if s == "" || s == "-" || s == "—" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
