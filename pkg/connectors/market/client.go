// Package market fetches current market valuation snapshots per company from
// the market data vendor.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/connectors/httpclient"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/models"
)

// ErrNoData means the vendor has no usable snapshot for the ticker (unknown
// symbol, or no market cap / enterprise value on file).
var ErrNoData = errors.New("market: no usable data for ticker")

// Config holds the vendor endpoint settings.
type Config struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	HTTP     httpclient.Config
}

// DefaultConfig returns the default vendor settings. The TTL keeps snapshots
// for the life of a dashboard session; a refresh run starts a new client.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.marketdata.example.com",
		CacheTTL: time.Hour,
		HTTP:     httpclient.DefaultConfig(),
	}
}

// Client fetches and memo-caches market snapshots. Failed tickers are cached
// too, so a bad symbol costs one request per run, not one per retry site.
type Client struct {
	cfg   Config
	http  *httpclient.Client
	cache *gocache.Cache
	log   *logrus.Entry
}

// negativeEntry marks a ticker the vendor could not serve.
type negativeEntry struct{}

// New creates a market data client.
func New(cfg Config) *Client {
	log := logrus.WithField("connector", "market")
	return &Client{
		cfg:   cfg,
		http:  httpclient.New(cfg.HTTP, log),
		cache: gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		log:   log,
	}
}

// vendorProfile is the vendor's company profile payload. Optional numerics
// are pointers so "absent" is distinguishable from zero.
type vendorProfile struct {
	Symbol          string   `json:"symbol"`
	ShortName       string   `json:"shortName"`
	Sector          string   `json:"sector"`
	Industry        string   `json:"industry"`
	MarketCap       *float64 `json:"marketCap"`
	EnterpriseValue *float64 `json:"enterpriseValue"`
	TotalDebt       *float64 `json:"totalDebt"`
	TotalCash       *float64 `json:"totalCash"`
	EBITDA          *float64 `json:"ebitda"`
}

// CompanyInfo fetches the valuation snapshot for one ticker.
func (c *Client) CompanyInfo(ctx context.Context, ticker string) (*models.MarketSnapshot, error) {
	if hit, found := c.cache.Get(ticker); found {
		if snap, ok := hit.(*models.MarketSnapshot); ok {
			return snap, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	u := fmt.Sprintf("%s/v3/profile/%s?apikey=%s", c.cfg.BaseURL, url.PathEscape(ticker), url.QueryEscape(c.cfg.APIKey))
	body, err := c.http.GetJSON(ctx, u)
	if err != nil {
		// Transport failures are not cached: the next run may succeed.
		return nil, fmt.Errorf("market fetch %s: %w", ticker, err)
	}

	profile, err := decodeProfile(body)
	if err != nil || profile.MarketCap == nil || profile.EnterpriseValue == nil {
		c.log.WithField("ticker", ticker).Debug("vendor returned no usable snapshot")
		c.cache.SetDefault(ticker, negativeEntry{})
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	snap := &models.MarketSnapshot{
		Ticker:          ticker,
		CompanyName:     profile.ShortName,
		Sector:          profile.Sector,
		Industry:        profile.Industry,
		MarketCap:       toMetric(profile.MarketCap),
		EnterpriseValue: toMetric(profile.EnterpriseValue),
		TotalDebt:       toMetric(profile.TotalDebt),
		TotalCash:       toMetric(profile.TotalCash),
		EBITDA:          toMetric(profile.EBITDA),
	}
	c.cache.SetDefault(ticker, snap)
	return snap, nil
}

// decodeProfile parses the vendor payload, repairing malformed JSON first if
// a straight decode fails. The vendor intermittently ships trailing commas
// and unquoted keys on less liquid symbols.
func decodeProfile(body []byte) (*vendorProfile, error) {
	var profile vendorProfile
	if err := json.Unmarshal(body, &profile); err == nil {
		return &profile, nil
	}
	repaired, err := jsonrepair.RepairJSON(string(body))
	if err != nil {
		return nil, fmt.Errorf("unparseable vendor payload: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &profile); err != nil {
		return nil, fmt.Errorf("unparseable vendor payload after repair: %w", err)
	}
	return &profile, nil
}

func toMetric(v *float64) models.Metric {
	if v == nil {
		return models.Metric(math.NaN())
	}
	return models.Metric(*v)
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() {
	c.http.Close()
}
