package poloniexfutures

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"crossspread-pfutures/internal/connector"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractsBody = `{"code":"200000","data":[
	{"symbol":"BTCUSDTPERP","rootSymbol":"USDT","baseCurrency":"XBT","quoteCurrency":"USDT",
	 "isInverse":false,"multiplier":0.001,"lotSize":1,"indexPriceTickSize":0.01,"tickSize":1,
	 "maxOrderQty":1000000,"maxPrice":1000000,"maxLeverage":75,"takerFeeRate":0.00075,
	 "makerFeeRate":0.0001,"status":"Open"},
	{"symbol":"ETHUSDTPERP","rootSymbol":"USDT","baseCurrency":"ETH","quoteCurrency":"USDT",
	 "isInverse":false,"multiplier":0.01,"lotSize":1,"indexPriceTickSize":0.01,"tickSize":0.05,
	 "maxOrderQty":1000000,"maxPrice":1000000,"maxLeverage":75,"takerFeeRate":0.00075,
	 "makerFeeRate":0.0001,"status":"Paused"}
]}`

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// fakeVenue serves canned bodies keyed by "METHOD /path"
type fakeVenue struct {
	server   *httptest.Server
	mu       sync.Mutex
	routes   map[string]string
	status   map[string]int
	requests []recordedRequest
}

func newFakeVenue(t *testing.T) *fakeVenue {
	v := &fakeVenue{
		routes: map[string]string{"GET /api/v1/contracts/active": contractsBody},
		status: map[string]int{},
	}
	v.server = httptest.NewServer(http.HandlerFunc(v.serve))
	t.Cleanup(v.server.Close)
	return v
}

func (v *fakeVenue) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	v.mu.Lock()
	v.requests = append(v.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	resp, ok := v.routes[key]
	status := v.status[key]
	v.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"404000","msg":"Url Not Found"}`))
		return
	}
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write([]byte(resp))
}

func (v *fakeVenue) route(method, path, body string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.routes[method+" "+path] = body
}

func (v *fakeVenue) routeStatus(method, path string, status int, body string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.routes[method+" "+path] = body
	v.status[method+" "+path] = status
}

// last returns the most recent request to path
func (v *fakeVenue) last(path string) (recordedRequest, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.requests) - 1; i >= 0; i-- {
		if v.requests[i].Path == path {
			return v.requests[i], true
		}
	}
	return recordedRequest{}, false
}

func (v *fakeVenue) count(path string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, r := range v.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func newTestExchange(t *testing.T, creds Credentials) (*Exchange, *fakeVenue) {
	venue := newFakeVenue(t)
	ex := New(Config{
		BaseURL:     venue.server.URL,
		Credentials: creds,
		RateLimit:   time.Microsecond,
		Now:         func() time.Time { return fixedNow },
	})
	ex.newClientOid = func() string { return "generated-oid" }
	return ex, venue
}

func TestLoadMarkets(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	ctx := context.Background()

	markets, err := ex.LoadMarkets(ctx, false)
	require.NoError(t, err)
	require.Len(t, markets, 2)

	btc, ok := ex.Markets().Market("BTC/USDT:USDT")
	require.True(t, ok)
	assert.Equal(t, "BTCUSDTPERP", btc.ID)
	assert.Equal(t, "BTC", btc.Base)
	assert.Equal(t, "XBT", btc.BaseID)
	assert.True(t, btc.Active)
	assert.True(t, btc.Linear)
	assert.Equal(t, "0.001", btc.ContractSize.Decimal.String())

	eth, ok := ex.Markets().MarketByID("ETHUSDTPERP")
	require.True(t, ok)
	assert.False(t, eth.Active)

	// cached
	_, err = ex.LoadMarkets(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, venue.count("/api/v1/contracts/active"))

	_, err = ex.LoadMarkets(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, venue.count("/api/v1/contracts/active"))
}

func TestFetchTickerUnknownSymbol(t *testing.T) {
	ex, _ := newTestExchange(t, Credentials{})

	_, err := ex.FetchTicker(context.Background(), "DOGE/USDT:USDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrBadSymbol))
	assert.True(t, errors.Is(err, connector.ErrBadRequest))
}

func TestFetchTicker(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v2/ticker", `{"code":"200000","data":{
		"sequence":1001,"symbol":"BTCUSDTPERP","side":"buy","size":10,"price":"16785.5",
		"bestBidSize":2,"bestBidPrice":"16785.4","bestAskPrice":"16785.6","bestAskSize":5,
		"tradeId":"abc","ts":1671203410721232337}}`)

	ticker, err := ex.FetchTicker(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT:USDT", ticker.Symbol)
	assert.Equal(t, int64(1671203410721), ticker.Timestamp)
	assert.Equal(t, "16785.5", ticker.Last.Decimal.String())
	assert.Equal(t, "16785.4", ticker.Bid.Decimal.String())
	assert.Equal(t, "5", ticker.AskVolume.Decimal.String())

	req, ok := venue.last("/api/v2/ticker")
	require.True(t, ok)
	assert.Equal(t, "BTCUSDTPERP", req.Query.Get("symbol"))
	assert.Empty(t, req.Header.Get(HeaderSign))
}

func TestFetchTickersFiltersSymbols(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v2/tickers", `{"code":"200000","data":[
		{"symbol":"BTCUSDTPERP","price":"16785.5","ts":1671203410721232337},
		{"symbol":"ETHUSDTPERP","price":"1200.1","ts":1671203410721232337}]}`)

	tickers, err := ex.FetchTickers(context.Background(), []string{"ETH/USDT:USDT"})
	require.NoError(t, err)
	require.Len(t, tickers, 1)
	assert.Equal(t, "1200.1", tickers["ETH/USDT:USDT"].Last.Decimal.String())

	all, err := ex.FetchTickers(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFetchOrderBook(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v1/level2/snapshot", `{"code":"200000","data":{
		"symbol":"BTCUSDTPERP","sequence":100,"ts":1671203410721232337,
		"bids":[["16780",3],["16785",1]],
		"asks":[["16790",2],["16786",4]]}}`)

	book, err := ex.FetchOrderBook(context.Background(), "BTC/USDT:USDT", 0)
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT:USDT", book.Symbol)
	assert.Equal(t, int64(100), book.Nonce)
	assert.Equal(t, int64(1671203410721), book.Timestamp)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, "16785", book.Bids[0].Price.String())
	assert.Equal(t, "16786", book.Asks[0].Price.String())
	assert.Equal(t, "4", book.Asks[0].Amount.String())
}

func TestFetchL3OrderBook(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v2/level3/snapshot", `{"code":"200000","data":{
		"symbol":"BTCUSDTPERP","sequence":7,"ts":1671203410721232337,
		"bids":[["order-b","16785",1,1671203410721232337]],
		"asks":[["order-a","16790",2,1671203410721232337]]}}`)

	book, err := ex.FetchL3OrderBook(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	assert.Equal(t, "order-b", book.Bids[0].OrderID)
	assert.Equal(t, "16785", book.Bids[0].Price.String())
	assert.Equal(t, "2", book.Asks[0].Amount.String())
}

func TestFetchOrderBookRejectsLevel(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})

	_, err := ex.FetchOrderBook(context.Background(), "BTC/USDT:USDT", 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrBadRequest))
	assert.Equal(t, 0, venue.count("/api/v1/contracts/active"))
}

func TestFetchOHLCV(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v1/kline/query", `{"code":"200000","data":[
		[1700003600000,"30010","30100","29950","30050","12"],
		[1700000000000,"30000","30050","29900","30010","10"],
		[1699996400000,"29900","30000","29800","30000","8"]]}`)

	since := fixedNow.UnixMilli()
	candles, err := ex.FetchOHLCV(context.Background(), "BTC/USDT:USDT", "1h", since, 2)
	require.NoError(t, err)

	req, ok := venue.last("/api/v1/kline/query")
	require.True(t, ok)
	assert.Equal(t, "60", req.Query.Get("granularity"))
	assert.Equal(t, "1700000000000", req.Query.Get("from"))
	assert.Equal(t, "1700007200000", req.Query.Get("to"))

	require.Len(t, candles, 2)
	assert.Equal(t, int64(1700000000000), candles[0].Timestamp)
	assert.Equal(t, int64(1700003600000), candles[1].Timestamp)
	assert.Equal(t, "30010", candles[0].Close.Decimal.String())
}

func TestFetchOHLCVLimitOnly(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v1/kline/query", `{"code":"200000","data":[]}`)

	_, err := ex.FetchOHLCV(context.Background(), "BTC/USDT:USDT", "4h", 0, 3)
	require.NoError(t, err)

	req, ok := venue.last("/api/v1/kline/query")
	require.True(t, ok)
	assert.Equal(t, "240", req.Query.Get("granularity"))
	assert.Equal(t, "1699956800000", req.Query.Get("from"))
	assert.Empty(t, req.Query.Get("to"))
}

func TestFetchOHLCVUnknownTimeframe(t *testing.T) {
	ex, _ := newTestExchange(t, Credentials{})

	_, err := ex.FetchOHLCV(context.Background(), "BTC/USDT:USDT", "3m", 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrBadRequest))
}

func TestFetchTimeAndStatus(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v1/timestamp", `{"code":"200000","data":1700000000123}`)
	venue.route(http.MethodGet, "/api/v1/status", `{"code":"200000","data":{"status":"open","msg":""}}`)

	ts, err := ex.FetchTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts)

	status, err := ex.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", status.Status)
}

func TestFetchFundingRate(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.route(http.MethodGet, "/api/v1/funding-rate/BTCUSDTPERP/current", `{"code":"200000","data":{
		"symbol":".BTCUSDTPERPFPI8H","granularity":28800000,"timePoint":1699977600000,
		"value":0.0001,"predictedValue":0.00012}}`)

	rate, err := ex.FetchFundingRate(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT:USDT", rate.Symbol)
	assert.Equal(t, "0.00012", rate.FundingRate.Decimal.String())
	assert.Equal(t, "0.0001", rate.PreviousFundingRate.Decimal.String())
	assert.Equal(t, int64(1699977600000), rate.PreviousFundingTimestamp)
}

func TestRequestClassifiesErrors(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.routeStatus(http.MethodGet, "/api/v1/timestamp", http.StatusTooManyRequests, `{"code":"429","msg":"Too many requests"}`)

	_, err := ex.FetchTime(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrRateLimitExceeded))
	assert.True(t, errors.Is(err, connector.ErrNetwork))
}

func TestRequestNetworkFailure(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})
	venue.server.Close()

	_, err := ex.FetchTime(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrNetwork))
	assert.False(t, errors.Is(err, connector.ErrExchange))
}

func TestPrivateRequiresCredentials(t *testing.T) {
	ex, venue := newTestExchange(t, Credentials{})

	_, err := ex.FetchBalance(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrAuthentication))
	assert.Equal(t, 0, venue.count("/api/v1/account-overview"))
}

func TestFetchBalance(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/account-overview", `{"code":"200000","data":{
		"accountEquity":"100.5","unrealisedPNL":0,"marginBalance":100.5,"positionMargin":0,
		"orderMargin":0,"frozenFunds":0,"availableBalance":"80.25","currency":"USDT"}}`)

	balances, err := ex.FetchBalance(context.Background(), "USDT")
	require.NoError(t, err)

	usdt, ok := balances.Currencies["USDT"]
	require.True(t, ok)
	assert.Equal(t, "80.25", usdt.Free.Decimal.String())
	assert.Equal(t, "20.25", usdt.Used.Decimal.String())
	assert.Equal(t, "100.5", usdt.Total.Decimal.String())

	req, ok := venue.last("/api/v1/account-overview")
	require.True(t, ok)
	assert.Equal(t, "USDT", req.Query.Get("currency"))
	assert.NotEmpty(t, req.Header.Get(HeaderSign))
	assert.Equal(t, "key", req.Header.Get(HeaderKey))
}

func TestFetchPositions(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/positions", `{"code":"200000","data":[
		{"symbol":"BTCUSDTPERP","crossMode":false,"currentTimestamp":1700000000000,
		 "currentQty":-3,"posCost":"-50","posInit":"10","posMaint":"0.5","maintMarginReq":"0.01",
		 "avgEntryPrice":"16666.6","realLeverage":"5","unrealisedPnl":"2.5",
		 "liquidationPrice":"19000","markPrice":"16000","maintMargin":"12.5"},
		{"symbol":"ETHUSDTPERP","crossMode":true,"currentQty":2,"posCost":"24","posInit":"4","unrealisedPnl":"0"}]}`)

	positions, err := ex.FetchPositions(context.Background(), []string{"BTC/USDT:USDT"})
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, connector.PositionSideShort, p.Side)
	assert.Equal(t, "3", p.Contracts.Decimal.String())
	assert.Equal(t, "50", p.Notional.Decimal.String())
	assert.Equal(t, "0.2", p.InitialMarginPercentage.Decimal.String())
	assert.Equal(t, "0.25", p.Percentage.Decimal.String())
	assert.Equal(t, connector.MarginModeIsolated, p.MarginMode)
	assert.Equal(t, int64(1700000000000), p.Timestamp)

	all, err := ex.FetchPositions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, connector.PositionSideLong, all[1].Side)
	assert.Equal(t, connector.MarginModeCross, all[1].MarginMode)
}

const ordersBody = `{"code":"200000","data":{"currentPage":1,"pageSize":50,"totalNum":3,"items":[
	{"id":"o1","symbol":"BTCUSDTPERP","type":"limit","side":"buy","price":"30000","size":10,
	 "dealSize":10,"dealValue":"300","filledValue":"300","leverage":"5","isActive":false,
	 "cancelExist":false,"createdAt":1700000001000},
	{"id":"o2","symbol":"BTCUSDTPERP","type":"limit","side":"sell","price":"31000","size":5,
	 "dealSize":0,"filledValue":"0","leverage":"5","isActive":false,"cancelExist":true,
	 "createdAt":1700000002000},
	{"id":"o3","symbol":"ETHUSDTPERP","type":"market","side":"buy","size":4,"dealSize":2,
	 "filledValue":"24","leverage":"2","isActive":true,"cancelExist":false,
	 "createdAt":1700000000000}]}}`

func TestFetchClosedOrdersSkipsCanceled(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/orders", ordersBody)

	orders, err := ex.FetchClosedOrders(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o3", orders[0].ID)
	assert.Equal(t, "o1", orders[1].ID)

	req, ok := venue.last("/api/v1/orders")
	require.True(t, ok)
	assert.Equal(t, StatusDone, req.Query.Get("status"))
}

func TestFetchOpenOrders(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/orders", ordersBody)

	orders, err := ex.FetchOpenOrders(context.Background(), "BTC/USDT:USDT", 0, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	req, ok := venue.last("/api/v1/orders")
	require.True(t, ok)
	assert.Equal(t, StatusActive, req.Query.Get("status"))
	assert.Equal(t, "BTCUSDTPERP", req.Query.Get("symbol"))
}

func TestFetchStopOrders(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/stopOrders", `{"code":"200000","data":{"items":[]}}`)

	_, err := ex.FetchOrdersByStatus(context.Background(), connector.OrderStatusOpen, "", 0, 0, OrdersQuery{Stop: true, Until: 1700000005000})
	require.NoError(t, err)

	req, ok := venue.last("/api/v1/stopOrders")
	require.True(t, ok)
	assert.Empty(t, req.Query.Get("status"))
	assert.Equal(t, "1700000005000", req.Query.Get("endAt"))

	_, err = ex.FetchOrdersByStatus(context.Background(), connector.OrderStatusClosed, "", 0, 0, OrdersQuery{Stop: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrBadRequest))
}

func TestFetchOrder(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/orders/o1", `{"code":"200000","data":{
		"id":"o1","symbol":"BTCUSDTPERP","type":"limit","side":"buy","price":"30000","size":10,
		"dealSize":10,"dealValue":"300","leverage":"5","isActive":false,"cancelExist":false,
		"createdAt":1700000001000,"clientOid":"c1"}}`)
	venue.route(http.MethodGet, "/api/v1/orders/byClientOid", `{"code":"200000","data":{
		"id":"o1","symbol":"BTCUSDTPERP","size":10,"dealSize":0,"isActive":true,"clientOid":"c1"}}`)

	order, err := ex.FetchOrder(context.Background(), "o1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, "c1", order.ClientOrderID)
	assert.Equal(t, connector.OrderStatusClosed, order.Status)
	assert.Equal(t, "BTC/USDT:USDT", order.Symbol)

	byClient, err := ex.FetchOrder(context.Background(), "", "", "c1")
	require.NoError(t, err)
	assert.Equal(t, connector.OrderStatusOpen, byClient.Status)
	req, ok := venue.last("/api/v1/orders/byClientOid")
	require.True(t, ok)
	assert.Equal(t, "c1", req.Query.Get("clientOid"))

	_, err = ex.FetchOrder(context.Background(), "", "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrInvalidOrder))
}

func TestCancelOrder(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodDelete, "/api/v1/orders/o1", `{"code":"200000","data":{"cancelledOrderIds":["o1"]}}`)
	venue.route(http.MethodDelete, "/api/v1/orders/o2", `{"code":"200000","data":{"cancelledOrderIds":[]}}`)

	order, err := ex.CancelOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	req, ok := venue.last("/api/v1/orders/o1")
	require.True(t, ok)
	assert.Equal(t, "{}", req.Body)

	_, err = ex.CancelOrder(context.Background(), "o2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrInvalidOrder))

	_, err = ex.CancelOrder(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrArgumentsRequired))
}

func TestCancelAllOrders(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodDelete, "/api/v1/stopOrders", `{"code":"200000","data":{"cancelledOrderIds":["s1","s2"]}}`)

	orders, err := ex.CancelAllOrders(context.Background(), "BTC/USDT:USDT", true)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "s2", orders[1].ID)

	req, ok := venue.last("/api/v1/stopOrders")
	require.True(t, ok)
	assert.JSONEq(t, `{"symbol":"BTCUSDTPERP"}`, req.Body)
}

func decodeBody(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestCreateLimitOrder(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodPost, "/api/v1/orders", `{"code":"200000","data":{"orderId":"new-order"}}`)

	order, err := ex.CreateOrder(context.Background(), "BTC/USDT:USDT", connector.OrderTypeLimit, connector.SideBuy,
		decimal.RequireFromString("3.7"), decimal.NewNullDecimal(decimal.RequireFromString("30000.004")),
		OrderParams{TimeInForce: "ioc", ReduceOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "new-order", order.ID)

	req, ok := venue.last("/api/v1/orders")
	require.True(t, ok)
	body := decodeBody(t, req.Body)

	assert.Equal(t, "generated-oid", body["clientOid"])
	assert.Equal(t, "buy", body["side"])
	assert.Equal(t, "BTCUSDTPERP", body["symbol"])
	assert.Equal(t, "limit", body["type"])
	assert.Equal(t, json.Number("3"), body["size"])
	assert.Equal(t, json.Number("1"), body["leverage"])
	assert.Equal(t, "30000", body["price"])
	assert.Equal(t, "IOC", body["timeInForce"])
	assert.Equal(t, true, body["reduceOnly"])
	assert.NotContains(t, body, "stop")
	assert.NotContains(t, body, "postOnly")
}

func TestCreateStopOrder(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodPost, "/api/v1/orders", `{"code":"200000","data":{"orderId":"stop-order"}}`)

	_, err := ex.CreateOrder(context.Background(), "BTC/USDT:USDT", connector.OrderTypeMarket, connector.SideSell,
		decimal.NewFromInt(2), decimal.NullDecimal{},
		OrderParams{
			ClientOrderID: "mine",
			Leverage:      decimal.NewNullDecimal(decimal.NewFromInt(10)),
			TriggerPrice:  decimal.NewNullDecimal(decimal.RequireFromString("29000.126")),
			Extra:         map[string]interface{}{"remark": "override"},
		})
	require.NoError(t, err)

	req, ok := venue.last("/api/v1/orders")
	require.True(t, ok)
	body := decodeBody(t, req.Body)

	assert.Equal(t, "mine", body["clientOid"])
	assert.Equal(t, json.Number("10"), body["leverage"])
	assert.Equal(t, StopDown, body["stop"])
	assert.Equal(t, StopPriceTypeTrade, body["stopPriceType"])
	assert.Equal(t, "29000.13", body["stopPrice"])
	assert.Equal(t, "override", body["remark"])
	assert.NotContains(t, body, "price")
}

func TestCreateOrderValidation(t *testing.T) {
	one := decimal.NewFromInt(1)
	price := decimal.NewNullDecimal(decimal.NewFromInt(30000))
	hidden := true

	tests := []struct {
		name      string
		orderType string
		amount    decimal.Decimal
		price     decimal.NullDecimal
		params    OrderParams
		kinds     []error
	}{
		{"fractional contract", connector.OrderTypeMarket, decimal.RequireFromString("0.5"), decimal.NullDecimal{}, OrderParams{}, []error{connector.ErrInvalidOrder}},
		{"limit without price", connector.OrderTypeLimit, one, decimal.NullDecimal{}, OrderParams{}, []error{connector.ErrArgumentsRequired, connector.ErrInvalidOrder}},
		{"post only and hidden", connector.OrderTypeLimit, one, price, OrderParams{PostOnly: true, Hidden: &hidden}, []error{connector.ErrBadRequest}},
		{"iceberg without visible size", connector.OrderTypeLimit, one, price, OrderParams{Iceberg: true}, []error{connector.ErrArgumentsRequired, connector.ErrInvalidOrder}},
		{"stop without trigger", connector.OrderTypeMarket, one, decimal.NullDecimal{}, OrderParams{Stop: StopUp}, []error{connector.ErrInvalidOrder}},
		{"unknown stop price type", connector.OrderTypeMarket, one, decimal.NullDecimal{}, OrderParams{TriggerPrice: price, StopPriceType: "LP"}, []error{connector.ErrBadRequest}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, venue := newTestExchange(t, testCredentials())

			_, err := ex.CreateOrder(context.Background(), "BTC/USDT:USDT", tt.orderType, connector.SideBuy, tt.amount, tt.price, tt.params)
			require.Error(t, err)
			for _, kind := range tt.kinds {
				assert.True(t, errors.Is(err, kind), "expected %v in %v", kind, err)
			}
			assert.Equal(t, 0, venue.count("/api/v1/orders"))
			assert.Equal(t, 0, venue.count("/api/v1/contracts/active"))
		})
	}
}

func TestFetchMyTrades(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/fills", `{"code":"200000","data":{"items":[
		{"symbol":"BTCUSDTPERP","tradeId":"t2","orderId":"o1","side":"sell","liquidity":"taker",
		 "price":"30000","size":2,"value":"60","feeRate":"0.00075","fee":"0.045","feeCurrency":"USDT",
		 "orderType":"limit","createdAt":1700000002000,"tradeTime":1700000002000000000},
		{"symbol":"BTCUSDTPERP","tradeId":"t1","orderId":"o1","side":"buy","liquidity":"maker",
		 "price":"30000","size":1,"fee":"0.003","orderType":"match","createdAt":1700000001000}]}}`)

	trades, err := ex.FetchMyTrades(context.Background(), "BTC/USDT:USDT", 0, 0)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "t1", trades[0].ID)
	assert.Empty(t, trades[0].Type)
	assert.Equal(t, "BTC", trades[0].Fee.Currency)
	assert.Equal(t, "30", trades[0].Cost.Decimal.String())

	assert.Equal(t, "t2", trades[1].ID)
	assert.Equal(t, "USDT", trades[1].Fee.Currency)
	assert.Equal(t, "60", trades[1].Cost.Decimal.String())
	assert.Equal(t, "taker", trades[1].TakerOrMaker)
}

func TestFetchFundingHistory(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodGet, "/api/v1/funding-history", `{"code":"200000","data":{"dataList":[
		{"id":36275152660006,"symbol":"BTCUSDTPERP","timePoint":1699977600000,"fundingRate":0.0001,
		 "markPrice":"30000","positionQty":3,"positionCost":"90","funding":"-0.009","settleCurrency":"USDT"}],
		"hasMore":false}}`)

	_, err := ex.FetchFundingHistory(context.Background(), "", 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrArgumentsRequired))

	payments, err := ex.FetchFundingHistory(context.Background(), "BTC/USDT:USDT", 1699900000000, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "USDT", payments[0].Code)
	assert.Equal(t, "-0.009", payments[0].Amount.Decimal.String())
	assert.Equal(t, "36275152660006", payments[0].ID.Decimal.String())

	req, ok := venue.last("/api/v1/funding-history")
	require.True(t, ok)
	assert.Equal(t, "BTCUSDTPERP", req.Query.Get("symbol"))
	assert.Equal(t, "1699900000000", req.Query.Get("startAt"))
	assert.Equal(t, "10", req.Query.Get("maxCount"))
}

func TestSetMarginMode(t *testing.T) {
	ex, venue := newTestExchange(t, testCredentials())
	venue.route(http.MethodPost, "/api/v1/marginType/change", `{"code":"200000","data":true}`)

	_, err := ex.SetMarginMode(context.Background(), "BTC/USDT:USDT", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrArgumentsRequired))

	resp, err := ex.SetMarginMode(context.Background(), "BTC/USDT:USDT", MarginTypeCross)
	require.NoError(t, err)
	assert.True(t, resp.Truthy("data"))

	req, ok := venue.last("/api/v1/marginType/change")
	require.True(t, ok)
	assert.JSONEq(t, `{"marginType":1,"symbol":"BTCUSDTPERP"}`, req.Body)
}

func TestHasIsACopy(t *testing.T) {
	ex, _ := newTestExchange(t, Credentials{})

	has := ex.Has()
	assert.True(t, has.Supports("fetchOrderBook"))
	assert.False(t, has.Supports("fetchCurrencies"))

	has["fetchCurrencies"] = true
	assert.False(t, ex.Has().Supports("fetchCurrencies"))
	assert.Equal(t, connector.PoloniexFutures, ex.ID())
}
