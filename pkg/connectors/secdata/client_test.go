package secdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const filingsPayload = `{"filings":[{"accessionNo":"0001-23-000001","formType":"10-K","filedAt":"2024-02-01","linkToFilingDetails":"https://edgar.example.com/10k.htm"}]}`

// renderedPage fabricates one rendered statement page with a single line item.
func renderedPage(label string, v2023, v2022 float64) string {
	return fmt.Sprintf(`<html><body><table>
		<tr><th>Line Item</th><th>Dec. 31, 2023</th><th>Dec. 31, 2022</th></tr>
		<tr><td>%s</td><td>%.0f</td><td>%.0f</td></tr>
	</table></body></html>`, label, v2023, v2022)
}

func testClient(baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-token"
	cfg.HTTP.RateLimit = 1000 // keep the test fast
	cfg.HTTP.MaxRetries = 0
	return New(cfg, nil)
}

func TestStatementsFallsBackToRenderedPages(t *testing.T) {
	// The XBRL endpoint serves only an income statement, so the client must
	// assemble the full set from the rendered statement pages.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/filings":
			fmt.Fprint(w, filingsPayload)
		case "/xbrl-to-json":
			fmt.Fprint(w, `{"StatementsOfIncome":{"Revenues":[{"value":100,"period":{"endDate":"2023-12-31"}}]}}`)
		case "/filing-reader":
			switch r.URL.Query().Get("type") {
			case "income-statement":
				fmt.Fprint(w, renderedPage("Revenues", 1000, 900))
			case "balance-sheet":
				fmt.Fprint(w, renderedPage("Total assets", 5000, 4800))
			case "cash-flow-statement":
				fmt.Fprint(w, renderedPage("Depreciation and amortization", 30, 28))
			default:
				http.NotFound(w, r)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(server.URL)
	defer c.Close()

	stmt, err := c.Statements(context.Background(), "OLD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stmt.Complete() {
		t.Fatal("fallback should produce all three statements")
	}
	rev, ok := stmt.Income.Series("Revenues")
	if !ok || rev.Latest() != 1000 {
		t.Errorf("income should come from the rendered page, got %v %v", ok, rev)
	}
	da, ok := stmt.CashFlow.Series("Depreciation and amortization")
	if !ok || da.Latest() != 30 {
		t.Errorf("cash flow should come from the rendered page, got %v %v", ok, da)
	}
}

func TestStatementsXBRLPreferredWhenComplete(t *testing.T) {
	// With complete XBRL, the rendered pages are never requested.
	var renderedHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/filings":
			fmt.Fprint(w, filingsPayload)
		case "/xbrl-to-json":
			fmt.Fprint(w, `{
				"StatementsOfIncome":{"Revenues":[{"value":100,"period":{"endDate":"2023-12-31"}}]},
				"BalanceSheets":{"Assets":[{"value":500,"period":{"instant":"2023-12-31"}}]},
				"StatementsOfCashFlows":{"DepreciationAndAmortization":[{"value":30,"period":{"endDate":"2023-12-31"}}]}
			}`)
		case "/filing-reader":
			renderedHits++
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(server.URL)
	defer c.Close()

	stmt, err := c.Statements(context.Background(), "NEW")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stmt.Complete() {
		t.Fatal("xbrl path should produce all three statements")
	}
	if renderedHits != 0 {
		t.Errorf("rendered pages should not be fetched when XBRL is complete, got %d hits", renderedHits)
	}
}

func TestStatementsNoFilingIsNegativelyCached(t *testing.T) {
	var filingHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/filings" {
			filingHits++
			fmt.Fprint(w, `{"filings":[]}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(server.URL)
	defer c.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.Statements(context.Background(), "NONE"); !errors.Is(err, ErrNoFiling) {
			t.Fatalf("expected ErrNoFiling, got %v", err)
		}
	}
	// The memo's negative entry absorbs the repeats.
	if filingHits != 1 {
		t.Errorf("expected 1 filing query, got %d", filingHits)
	}
}
