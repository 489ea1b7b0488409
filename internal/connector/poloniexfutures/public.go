package poloniexfutures

import (
	"context"
	"net/http"

	"crossspread-pfutures/internal/connector"
)

// =============================================================================
// Public Market Data APIs
// =============================================================================

// FetchMarkets fetches all active contracts
func (e *Exchange) FetchMarkets(ctx context.Context) ([]*connector.Market, error) {
	body, err := e.request(ctx, Public, http.MethodGet, "contracts/active", nil)
	if err != nil {
		return nil, err
	}

	items := body.Items("data")
	markets := make([]*connector.Market, 0, len(items))
	for _, item := range items {
		markets = append(markets, e.parseMarket(item))
	}
	return markets, nil
}

// FetchTicker fetches the ticker of one market
func (e *Exchange) FetchTicker(ctx context.Context, symbol string) (*connector.Ticker, error) {
	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	body, err := e.request(ctx, Public, http.MethodGet, "ticker", map[string]interface{}{
		"symbol": market.ID,
	})
	if err != nil {
		return nil, err
	}
	return e.parseTicker(body.Get("data"), market), nil
}

// FetchTickers fetches tickers of all markets, keyed by symbol. A non-empty
// symbols list restricts the result.
func (e *Exchange) FetchTickers(ctx context.Context, symbols []string) (map[string]*connector.Ticker, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	body, err := e.request(ctx, Public, http.MethodGet, "tickers", nil)
	if err != nil {
		return nil, err
	}

	var tickers []*connector.Ticker
	for _, item := range body.Items("data") {
		tickers = append(tickers, e.parseTicker(item, nil))
	}
	tickers = connector.FilterSymbols(tickers, symbols, func(t *connector.Ticker) string { return t.Symbol })

	result := make(map[string]*connector.Ticker, len(tickers))
	for _, t := range tickers {
		result[t.Symbol] = t
	}
	return result, nil
}

// FetchOrderBook fetches an orderbook snapshot. level is 2 (aggregated) or 3
// (per order); 0 selects level 2.
func (e *Exchange) FetchOrderBook(ctx context.Context, symbol string, level int) (*connector.OrderBook, error) {
	if level != 0 && level != 2 && level != 3 {
		return nil, connector.NewError(connector.ErrBadRequest, "%s fetchOrderBook() can only return level 2 & 3", ID)
	}

	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	path := "level2/snapshot"
	if level == 3 {
		path = "level3/snapshot"
	}

	body, err := e.request(ctx, Public, http.MethodGet, path, map[string]interface{}{
		"symbol": market.ID,
	})
	if err != nil {
		return nil, err
	}
	return parseOrderBook(body.Get("data"), market.Symbol, level), nil
}

// FetchL3OrderBook fetches the per-order (level 3) orderbook
func (e *Exchange) FetchL3OrderBook(ctx context.Context, symbol string) (*connector.OrderBook, error) {
	return e.FetchOrderBook(ctx, symbol, 3)
}

// FetchTrades fetches recent public trades
func (e *Exchange) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]*connector.Trade, error) {
	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	body, err := e.request(ctx, Public, http.MethodGet, "trade/history", map[string]interface{}{
		"symbol": market.ID,
	})
	if err != nil {
		return nil, err
	}

	var trades []*connector.Trade
	for _, item := range body.Items("data") {
		trades = append(trades, e.parseTrade(item, market))
	}
	return connector.SortBySinceLimit(trades, since, limit), nil
}

// FetchOHLCV fetches candles. When since is set the window ends limit candles
// later (limit defaults to DefaultOHLCVLimit); with only limit set the window
// ends now.
func (e *Exchange) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]*connector.OHLCV, error) {
	granularity, ok := Timeframes[timeframe]
	if !ok {
		return nil, connector.NewError(connector.ErrBadRequest, "%s fetchOHLCV() does not support timeframe %s", ID, timeframe)
	}

	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"symbol":      market.ID,
		"granularity": granularity,
	}
	duration := int64(granularity) * 60 * 1000
	if since > 0 {
		if limit <= 0 {
			limit = DefaultOHLCVLimit
		}
		params["from"] = since
		params["to"] = since + int64(limit)*duration
	} else if limit > 0 {
		since = e.now().UnixMilli() - int64(limit)*duration
		params["from"] = since
	}

	body, err := e.request(ctx, Public, http.MethodGet, "kline/query", params)
	if err != nil {
		return nil, err
	}

	var candles []*connector.OHLCV
	for _, row := range body.Items("data") {
		candles = append(candles, parseOHLCV(row))
	}
	return connector.SortBySinceLimit(candles, since, limit), nil
}

// FetchTime fetches the server time in milliseconds
func (e *Exchange) FetchTime(ctx context.Context) (int64, error) {
	body, err := e.request(ctx, Public, http.MethodGet, "timestamp", nil)
	if err != nil {
		return 0, err
	}
	ts, _ := body.Int64("data")
	return ts, nil
}

// FetchStatus fetches the service status
func (e *Exchange) FetchStatus(ctx context.Context) (*ExchangeStatus, error) {
	body, err := e.request(ctx, Public, http.MethodGet, "status", nil)
	if err != nil {
		return nil, err
	}
	data := body.Get("data")
	return &ExchangeStatus{
		Status:  data.String("status"),
		Message: data.String("msg"),
		Info:    body,
	}, nil
}

// FetchFundingRate fetches the current funding rate of a market
func (e *Exchange) FetchFundingRate(ctx context.Context, symbol string) (*connector.FundingRate, error) {
	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	body, err := e.request(ctx, Public, http.MethodGet, "funding-rate/{symbol}/current", map[string]interface{}{
		"symbol": market.ID,
	})
	if err != nil {
		return nil, err
	}
	return parseFundingRate(body.Get("data"), market), nil
}
