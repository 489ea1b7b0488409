package poloniexfutures

import (
	"time"

	"crossspread-pfutures/internal/connector"

	"github.com/shopspring/decimal"
)

// API URLs
const (
	RESTBaseURL = "https://futures-api.poloniex.com"
)

const (
	// ID prefixes every classified error message
	ID = string(connector.PoloniexFutures)

	// DefaultVersion is used for every endpoint without a version override
	DefaultVersion = "v1"

	// SuccessCode is the envelope code of a successful response
	SuccessCode = "200000"

	// DefaultRateLimit is the time cost of one weight unit (30 requests per second)
	DefaultRateLimit = 33300 * time.Microsecond

	// DefaultOHLCVLimit is the candle count requested when only since is given
	DefaultOHLCVLimit = 200
)

// Authentication headers
const (
	HeaderSign       = "PF-API-SIGN"
	HeaderTimestamp  = "PF-API-TIMESTAMP"
	HeaderKey        = "PF-API-KEY"
	HeaderPassphrase = "PF-API-PASSPHRASE"
)

// Access is the authentication scope of an endpoint
type Access string

const (
	Public  Access = "public"
	Private Access = "private"
)

// Order statuses as understood by the exchange
const (
	StatusActive = "active"
	StatusDone   = "done"
)

// Stop directions
const (
	StopUp   = "up"   // triggers when the price rises to stopPrice
	StopDown = "down" // triggers when the price falls to stopPrice
)

// Stop price types
const (
	StopPriceTypeTrade = "TP" // last trade price
	StopPriceTypeIndex = "IP" // index price
	StopPriceTypeMark  = "MP" // mark price
)

// Margin types accepted by marginType/change
const (
	MarginTypeIsolated = 0
	MarginTypeCross    = 1
)

// MarginTypeFor maps a unified margin mode to the exchange margin type
func MarginTypeFor(mode string) (int, bool) {
	switch mode {
	case connector.MarginModeIsolated:
		return MarginTypeIsolated, true
	case connector.MarginModeCross:
		return MarginTypeCross, true
	}
	return 0, false
}

// OrderEndpoint selects the regular or the stop order book
type OrderEndpoint int

const (
	RegularOrders OrderEndpoint = iota
	StopOrders
)

// OrderEndpointFor picks the order book addressed by the stop flag
func OrderEndpointFor(stop bool) OrderEndpoint {
	if stop {
		return StopOrders
	}
	return RegularOrders
}

// Path returns the endpoint path of the order book
func (e OrderEndpoint) Path() string {
	switch e {
	case StopOrders:
		return "stopOrders"
	default:
		return "orders"
	}
}

func (e OrderEndpoint) String() string {
	return e.Path()
}

// Timeframes maps unified timeframes to kline granularities in minutes
var Timeframes = map[string]int{
	"1m":  1,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"1h":  60,
	"2h":  120,
	"4h":  240,
	"8h":  480,
	"12h": 720,
	"1d":  1440,
	"1w":  10080,
}

// capabilities lists the unified operations this adapter implements
var capabilities = connector.Capabilities{
	"spot":                false,
	"margin":              true,
	"swap":                true,
	"future":              false,
	"createOrder":         true,
	"cancelOrder":         true,
	"cancelAllOrders":     true,
	"fetchBalance":        true,
	"fetchClosedOrders":   true,
	"fetchCurrencies":     false,
	"fetchFundingHistory": true,
	"fetchFundingRate":    true,
	"fetchL3OrderBook":    true,
	"fetchMarkets":        true,
	"fetchMyTrades":       true,
	"fetchOHLCV":          true,
	"fetchOpenOrders":     true,
	"fetchOrder":          true,
	"fetchOrderBook":      true,
	"fetchOrdersByStatus": true,
	"fetchPositions":      true,
	"fetchStatus":         true,
	"fetchTicker":         true,
	"fetchTickers":        true,
	"fetchTime":           true,
	"fetchTrades":         true,
	"setMarginMode":       true,
}

// OrderParams carries the optional parts of a new order
type OrderParams struct {
	ClientOrderID string
	Leverage      decimal.NullDecimal // defaults to 1
	TriggerPrice  decimal.NullDecimal // makes the order a stop order
	Stop          string              // overrides the direction derived from side
	StopPriceType string              // TP (default), IP or MP
	TimeInForce   string              // GTC or IOC, limit orders only
	PostOnly      bool
	Hidden        *bool
	Iceberg       bool
	VisibleSize   decimal.NullDecimal
	ReduceOnly    bool
	CloseOrder    bool
	ForceHold     bool
	Remark        string
	Extra         map[string]interface{} // sent as is, overriding the fields above
}

// OrdersQuery carries the optional filters of an order listing
type OrdersQuery struct {
	Stop  bool  // list untriggered stop orders instead of regular orders
	Until int64 // ms, sent as endAt
}

// ExchangeStatus is the service status reported by the status endpoint
type ExchangeStatus struct {
	Status  string        `json:"status"` // open, close or cancelonly
	Message string        `json:"msg"`
	Info    connector.Raw `json:"info"`
}
