package secdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/connectors/httpclient"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// ErrNoFiling means no annual filing was found for the ticker, or the filing
// could not be parsed into all three statements.
var ErrNoFiling = errors.New("secdata: no usable annual filing")

// StatementCache persists parsed statements across runs. Implemented by the
// store package; nil disables persistence.
type StatementCache interface {
	Get(ctx context.Context, ticker string) (*models.FinancialStatement, error)
	Save(ctx context.Context, stmt *models.FinancialStatement) error
}

// Config holds the filing API settings.
type Config struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	HTTP     httpclient.Config
}

// DefaultConfig returns default filing API settings.
func DefaultConfig() Config {
	cfg := Config{
		BaseURL:  "https://api.sec-api.example.com",
		CacheTTL: time.Hour,
		HTTP:     httpclient.DefaultConfig(),
	}
	// EDGAR-backed APIs are stricter about request rates.
	cfg.HTTP.RateLimit = 2.0
	return cfg
}

// Client fetches the latest annual filing per ticker and parses it into a
// FinancialStatement. A per-run memo cache (including negative entries)
// sits in front of the optional persistent cache.
type Client struct {
	cfg   Config
	http  *httpclient.Client
	memo  *gocache.Cache
	store StatementCache
	log   *logrus.Entry
}

type negativeEntry struct{}

// New creates a filing client. store may be nil.
func New(cfg Config, store StatementCache) *Client {
	log := logrus.WithField("connector", "secdata")
	return &Client{
		cfg:   cfg,
		http:  httpclient.New(cfg.HTTP, log),
		memo:  gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		store: store,
		log:   log,
	}
}

// filingQueryResponse is the filing search payload.
type filingQueryResponse struct {
	Filings []struct {
		AccessionNumber      string `json:"accessionNo"`
		FormType             string `json:"formType"`
		FiledAt              string `json:"filedAt"`
		LinkToFilingDetails  string `json:"linkToFilingDetails"`
		LinkToHTMLAnnouncing string `json:"linkToHtml"`
	} `json:"filings"`
}

// Statements fetches and parses the latest 10-K for a ticker.
func (c *Client) Statements(ctx context.Context, ticker string) (*models.FinancialStatement, error) {
	if hit, found := c.memo.Get(ticker); found {
		if stmt, ok := hit.(*models.FinancialStatement); ok {
			return stmt, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoFiling, ticker)
	}

	if c.store != nil {
		if stmt, err := c.store.Get(ctx, ticker); err == nil && stmt != nil {
			c.memo.SetDefault(ticker, stmt)
			return stmt, nil
		}
	}

	stmt, err := c.fetch(ctx, ticker)
	if err != nil {
		if errors.Is(err, ErrNoFiling) {
			// A ticker with no filing stays missing for the whole run.
			c.memo.SetDefault(ticker, negativeEntry{})
		}
		return nil, err
	}

	c.memo.SetDefault(ticker, stmt)
	if c.store != nil {
		if err := c.store.Save(ctx, stmt); err != nil {
			c.log.WithField("ticker", ticker).Warnf("persist statements: %v", err)
		}
	}
	return stmt, nil
}

func (c *Client) fetch(ctx context.Context, ticker string) (*models.FinancialStatement, error) {
	c.log.WithField("ticker", ticker).Info("sourcing SEC data")

	queryURL := fmt.Sprintf("%s/filings?ticker=%s&form=10-K&size=1&sort=filedAt:desc&token=%s",
		c.cfg.BaseURL, url.QueryEscape(ticker), url.QueryEscape(c.cfg.APIKey))
	body, err := c.http.GetJSON(ctx, queryURL)
	if err != nil {
		return nil, fmt.Errorf("filing query %s: %w", ticker, err)
	}

	var resp filingQueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("filing query %s: %w", ticker, err)
	}
	if len(resp.Filings) == 0 {
		c.log.WithField("ticker", ticker).Warn("no 10-K filings found")
		return nil, fmt.Errorf("%w: %s", ErrNoFiling, ticker)
	}

	filingURL := resp.Filings[0].LinkToFilingDetails
	xbrlURL := fmt.Sprintf("%s/xbrl-to-json?htm-url=%s&token=%s",
		c.cfg.BaseURL, url.QueryEscape(filingURL), url.QueryEscape(c.cfg.APIKey))
	raw, err := c.http.GetJSON(ctx, xbrlURL)
	if err != nil {
		return nil, fmt.Errorf("xbrl fetch %s: %w", ticker, err)
	}

	stmt, err := ParseXBRL(ticker, raw)
	if err == nil && stmt.Complete() {
		return stmt, nil
	}
	// Older filings render statements as HTML tables but carry no usable
	// XBRL JSON; read the rendered pages instead.
	c.log.WithField("ticker", ticker).Warn("xbrl incomplete, falling back to rendered statement pages")
	return c.fetchRendered(ctx, ticker, filingURL)
}

// renderedPages maps each statement to the page type the filing reader
// endpoint serves for it.
var renderedPages = []struct {
	kind string
	key  string
}{
	{"income-statement", models.StatementIncome},
	{"balance-sheet", models.StatementBalance},
	{"cash-flow-statement", models.StatementCashFlow},
}

// fetchRendered builds the statement set from the filing's rendered HTML
// statement pages, one request per statement.
func (c *Client) fetchRendered(ctx context.Context, ticker, filingURL string) (*models.FinancialStatement, error) {
	stmt := &models.FinancialStatement{Ticker: ticker}
	for _, page := range renderedPages {
		u := fmt.Sprintf("%s/filing-reader?type=%s&url=%s&token=%s",
			c.cfg.BaseURL, page.kind, url.QueryEscape(filingURL), url.QueryEscape(c.cfg.APIKey))
		body, err := c.http.GetJSON(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("statement page %s %s: %w", page.kind, ticker, err)
		}
		table, err := ParseStatementHTML(string(body))
		if err != nil {
			return nil, fmt.Errorf("statement page %s %s: %w", page.kind, ticker, err)
		}
		switch page.key {
		case models.StatementIncome:
			stmt.Income = table
		case models.StatementBalance:
			stmt.Balance = table
		case models.StatementCashFlow:
			stmt.CashFlow = table
		}
	}
	if !stmt.Complete() {
		c.log.WithField("ticker", ticker).Warn("could not parse one or more financial statements")
		return nil, fmt.Errorf("%w: %s", ErrNoFiling, ticker)
	}
	return stmt, nil
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() {
	c.http.Close()
}
