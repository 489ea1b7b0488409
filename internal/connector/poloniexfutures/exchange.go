// Package poloniexfutures adapts the Poloniex Futures REST API to the unified
// connector interface.
package poloniexfutures

import (
	"context"
	"net/http"
	"sync"
	"time"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/metrics"
	"crossspread-pfutures/internal/normalizer"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Config holds configuration for the adapter
type Config struct {
	BaseURL     string
	Credentials Credentials
	Timeout     time.Duration
	HTTPClient  *http.Client
	RateLimit   time.Duration    // cost of one weight unit
	Now         func() time.Time // clock used for signing and OHLCV windows

	// CurrencyAliases adds exchange currency id -> unified code mappings
	CurrencyAliases map[string]string
}

// Exchange is the Poloniex Futures adapter. It is safe for concurrent use.
type Exchange struct {
	signer     *Signer
	httpClient *http.Client
	limiter    *rate.Limiter
	markets    *normalizer.MarketRegistry
	now        func() time.Time

	// loadMu serializes market (re)loads
	loadMu sync.Mutex

	newClientOid func() string
}

var _ connector.Exchange = (*Exchange)(nil)

// New creates a new Poloniex Futures adapter
func New(cfg Config) *Exchange {
	if cfg.BaseURL == "" {
		cfg.BaseURL = RESTBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Tokens are thousandths of a weight unit
	perSecond := float64(time.Second) / float64(cfg.RateLimit) * 1000

	return &Exchange{
		signer:       NewSigner(cfg.BaseURL, cfg.Credentials, cfg.Now),
		httpClient:   httpClient,
		limiter:      rate.NewLimiter(rate.Limit(perSecond), maxLimiterCost()),
		markets:      normalizer.NewMarketRegistry(cfg.CurrencyAliases),
		now:          cfg.Now,
		newClientOid: uuid.NewString,
	}
}

// ID returns the exchange identifier
func (e *Exchange) ID() connector.ExchangeID {
	return connector.PoloniexFutures
}

// Has returns the capability table
func (e *Exchange) Has() connector.Capabilities {
	has := make(connector.Capabilities, len(capabilities))
	for k, v := range capabilities {
		has[k] = v
	}
	return has
}

// Markets exposes the market registry
func (e *Exchange) Markets() *normalizer.MarketRegistry {
	return e.markets
}

// LoadMarkets fetches markets once and caches them; reload forces a refresh
func (e *Exchange) LoadMarkets(ctx context.Context, reload bool) ([]*connector.Market, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	if !reload && e.markets.Loaded() {
		return e.markets.Markets(), nil
	}

	markets, err := e.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}
	e.markets.Load(markets)
	metrics.InstrumentsLoaded.WithLabelValues(ID).Set(float64(len(markets)))

	log.Info().
		Str("exchange", ID).
		Int("markets", len(markets)).
		Msg("Loaded markets")

	return e.markets.Markets(), nil
}

// market resolves a unified symbol to a loaded market
func (e *Exchange) market(symbol string) (*connector.Market, error) {
	if m, ok := e.markets.Market(symbol); ok {
		return m, nil
	}
	return nil, connector.NewError(connector.ErrBadSymbol, "%s does not have market symbol %s", ID, symbol)
}

// marketFor loads markets and resolves symbol in one step
func (e *Exchange) marketFor(ctx context.Context, symbol string) (*connector.Market, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	return e.market(symbol)
}
