package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Sink receives normalized snapshots
type Sink interface {
	PublishTicker(ctx context.Context, exchange connector.ExchangeID, ticker *connector.Ticker) error
	PublishOrderbook(ctx context.Context, exchange connector.ExchangeID, ob *connector.OrderBook) error
	PublishFundingRate(ctx context.Context, exchange connector.ExchangeID, rate *connector.FundingRate) error
}

// Snapshot holds the data of one market fetched in one poll cycle
type Snapshot struct {
	Symbol      string                 `json:"symbol"`
	Ticker      *connector.Ticker      `json:"ticker,omitempty"`
	OrderBook   *connector.OrderBook   `json:"orderbook,omitempty"`
	FundingRate *connector.FundingRate `json:"funding_rate,omitempty"`
	FetchedAt   time.Time              `json:"fetched_at"`
}

// PollerConfig configures a RestPoller
type PollerConfig struct {
	Symbols        []string
	OrderbookLevel int
	Interval       time.Duration
}

// RestPoller periodically fetches market data over REST and hands it to a sink
type RestPoller struct {
	source connector.MarketData
	sink   Sink
	cfg    PollerConfig

	mu        sync.RWMutex
	symbols   []string // configured symbols the venue lists
	snapshots map[string]*Snapshot
}

// NewRestPoller creates a new REST poller
func NewRestPoller(source connector.MarketData, sink Sink, cfg PollerConfig) *RestPoller {
	if cfg.OrderbookLevel == 0 {
		cfg.OrderbookLevel = 2
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &RestPoller{
		source:    source,
		sink:      sink,
		cfg:       cfg,
		snapshots: make(map[string]*Snapshot),
	}
}

// LoadMarkets loads the venue's markets and keeps the configured symbols it lists
func (p *RestPoller) LoadMarkets(ctx context.Context) error {
	exchangeID := string(p.source.ID())

	markets, err := p.source.LoadMarkets(ctx, true)
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}

	listed := make(map[string]bool, len(markets))
	for _, m := range markets {
		listed[m.Symbol] = true
	}

	symbols := make([]string, 0, len(p.cfg.Symbols))
	for _, s := range p.cfg.Symbols {
		if !listed[s] {
			log.Warn().Str("exchange", exchangeID).Str("symbol", s).Msg("Symbol not listed, skipping")
			continue
		}
		symbols = append(symbols, s)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("none of the configured symbols %v are listed on %s", p.cfg.Symbols, exchangeID)
	}

	p.mu.Lock()
	p.symbols = symbols
	p.mu.Unlock()

	metrics.InstrumentsPolled.WithLabelValues(exchangeID).Set(float64(len(symbols)))
	log.Info().
		Str("exchange", exchangeID).
		Int("markets", len(markets)).
		Strs("symbols", symbols).
		Msg("Poller markets loaded")
	return nil
}

// Symbols returns the symbols being polled
func (p *RestPoller) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]string, len(p.symbols))
	copy(result, p.symbols)
	return result
}

// PollOnce runs one poll cycle. Failures of single fetches are logged,
// counted and joined into the returned error; the rest of the cycle proceeds.
func (p *RestPoller) PollOnce(ctx context.Context) error {
	exchangeID := string(p.source.ID())
	timer := metrics.NewTimer()
	symbols := p.Symbols()
	fetchedAt := time.Now()

	var (
		errMu sync.Mutex
		errs  []error
	)
	fail := func(what, symbol string, err error) {
		metrics.RecordPollError(exchangeID, connector.KindName(err))
		log.Warn().
			Err(err).
			Str("exchange", exchangeID).
			Str("symbol", symbol).
			Msgf("Failed to fetch %s", what)
		errMu.Lock()
		errs = append(errs, fmt.Errorf("%s %s: %w", what, symbol, err))
		errMu.Unlock()
	}

	snapshots := make(map[string]*Snapshot, len(symbols))
	for _, s := range symbols {
		snapshots[s] = &Snapshot{Symbol: s, FetchedAt: fetchedAt}
	}

	// One request covers all tickers
	tickers, err := p.source.FetchTickers(ctx, symbols)
	if err != nil {
		fail("tickers", "*", err)
	}
	for symbol, t := range tickers {
		if snap, ok := snapshots[symbol]; ok {
			snap.Ticker = t
		}
	}

	var wg sync.WaitGroup
	for _, s := range symbols {
		wg.Add(1)
		go func(snap *Snapshot) {
			defer wg.Done()

			ob, err := p.source.FetchOrderBook(ctx, snap.Symbol, p.cfg.OrderbookLevel)
			if err != nil {
				fail("orderbook", snap.Symbol, err)
			} else {
				snap.OrderBook = ob
			}

			fr, err := p.source.FetchFundingRate(ctx, snap.Symbol)
			if err != nil {
				fail("funding rate", snap.Symbol, err)
			} else {
				snap.FundingRate = fr
			}
		}(snapshots[s])
	}
	wg.Wait()

	for _, s := range symbols {
		snap := snapshots[s]
		if err := p.publish(ctx, snap); err != nil {
			fail("publish", s, err)
		}
	}

	p.mu.Lock()
	for s, snap := range snapshots {
		p.snapshots[s] = snap
	}
	p.mu.Unlock()

	timer.ObserveDuration(metrics.PollDuration, exchangeID)
	log.Debug().
		Str("exchange", exchangeID).
		Int("symbols", len(symbols)).
		Int("errors", len(errs)).
		Msg("Poll cycle complete")

	return errors.Join(errs...)
}

func (p *RestPoller) publish(ctx context.Context, snap *Snapshot) error {
	id := p.source.ID()
	exchangeID := string(id)

	if t := snap.Ticker; t != nil {
		metrics.RecordTicker(exchangeID, snap.Symbol, toFloat(t.Last))
		if err := p.sink.PublishTicker(ctx, id, t); err != nil {
			return err
		}
	}

	if ob := snap.OrderBook; ob != nil {
		var bestBid, bestAsk float64
		if len(ob.Bids) > 0 {
			bestBid = ob.Bids[0].Price.InexactFloat64()
		}
		if len(ob.Asks) > 0 {
			bestAsk = ob.Asks[0].Price.InexactFloat64()
		}
		metrics.RecordOrderbook(exchangeID, snap.Symbol, len(ob.Bids), len(ob.Asks), bestBid, bestAsk)
		if err := p.sink.PublishOrderbook(ctx, id, ob); err != nil {
			return err
		}
	}

	if fr := snap.FundingRate; fr != nil {
		if fr.FundingRate.Valid {
			metrics.RecordFundingRate(exchangeID, snap.Symbol, toFloat(fr.FundingRate))
		}
		if err := p.sink.PublishFundingRate(ctx, id, fr); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.InexactFloat64()
}

// GetSnapshots returns the latest snapshot of every polled symbol
func (p *RestPoller) GetSnapshots() map[string]*Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]*Snapshot, len(p.snapshots))
	for k, v := range p.snapshots {
		result[k] = v
	}
	return result
}

// Run loads markets, then polls every interval until ctx is done
func (p *RestPoller) Run(ctx context.Context) error {
	if err := p.LoadMarkets(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("exchange", string(p.source.ID())).Msg("Poll cycle had failures")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
