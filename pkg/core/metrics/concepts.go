// Package metrics derives the screening metrics table from raw financial
// statements and market snapshots.
package metrics

import "github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"

// Concept is a financial concept the calculator needs to resolve from a
// statement's heterogeneous line items.
type Concept string

const (
	ConceptRevenue         Concept = "Revenue"
	ConceptOperatingIncome Concept = "OperatingIncome"
	ConceptDepreciation    Concept = "DepreciationAndAmortization"
	ConceptCapEx           Concept = "CapEx"
)

// conceptStatement maps each concept to the statement it is sourced from.
var conceptStatement = map[Concept]string{
	ConceptRevenue:         models.StatementIncome,
	ConceptOperatingIncome: models.StatementIncome,
	ConceptDepreciation:    models.StatementCashFlow,
	ConceptCapEx:           models.StatementCashFlow,
}

// conceptSynonyms is the prioritized synonym table per concept. Filings tag
// the same economic line under different XBRL concept names; the first label
// present in the statement wins. An unmatched concept is an explicit
// "not found", never a default.
var conceptSynonyms = map[Concept][]string{
	ConceptRevenue: {
		"Revenues",
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"TotalRevenues",
		"SalesRevenueNet",
	},
	ConceptOperatingIncome: {
		"OperatingIncomeLoss",
	},
	ConceptDepreciation: {
		"DepreciationAndAmortization",
		"DepreciationDepletionAndAmortization",
	},
	ConceptCapEx: {
		"CapitalExpenditures",
		"PurchaseOfPropertyAndEquipmentNet",
		"PaymentsToAcquirePropertyPlantAndEquipment",
	},
}

// resolveSeries finds the time series for a concept using the synonym table.
// The bool is false when no synonym matches or the matched series is empty.
func resolveSeries(stmt *models.FinancialStatement, concept Concept) (models.Series, bool) {
	table := stmt.Table(conceptStatement[concept])
	if table.Empty() {
		return models.Series{}, false
	}
	for _, label := range conceptSynonyms[concept] {
		if s, ok := table.Series(label); ok {
			return s, true
		}
	}
	return models.Series{}, false
}
