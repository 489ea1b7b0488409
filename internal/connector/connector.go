package connector

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangeID represents a unique exchange identifier
type ExchangeID string

const (
	PoloniexFutures ExchangeID = "poloniexfutures"
)

// Order sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order types
const (
	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"
)

// Unified order statuses
const (
	OrderStatusOpen     = "open"
	OrderStatusClosed   = "closed"
	OrderStatusCanceled = "canceled"
)

// Position sides
const (
	PositionSideLong  = "long"
	PositionSideShort = "short"
)

// Margin modes
const (
	MarginModeCross    = "cross"
	MarginModeIsolated = "isolated"
)

// MinMax is an optional numeric range
type MinMax struct {
	Min decimal.NullDecimal `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

// MarketPrecision holds the tick sizes of a market
type MarketPrecision struct {
	Amount decimal.NullDecimal `json:"amount"` // lot size
	Price  decimal.NullDecimal `json:"price"`  // tick size
}

// MarketLimits holds the trading limits of a market
type MarketLimits struct {
	Leverage MinMax `json:"leverage"`
	Amount   MinMax `json:"amount"`
	Price    MinMax `json:"price"`
	Cost     MinMax `json:"cost"`
}

// Market represents a tradable instrument
type Market struct {
	ID           string              `json:"id"`
	Symbol       string              `json:"symbol"` // BASE/QUOTE:SETTLE
	Base         string              `json:"base"`
	Quote        string              `json:"quote"`
	Settle       string              `json:"settle"`
	BaseID       string              `json:"baseId"`
	QuoteID      string              `json:"quoteId"`
	SettleID     string              `json:"settleId"`
	Type         string              `json:"type"`
	Spot         bool                `json:"spot"`
	Margin       bool                `json:"margin"`
	Swap         bool                `json:"swap"`
	Future       bool                `json:"future"`
	Option       bool                `json:"option"`
	Contract     bool                `json:"contract"`
	Linear       bool                `json:"linear"`
	Inverse      bool                `json:"inverse"`
	Active       bool                `json:"active"`
	Taker        decimal.NullDecimal `json:"taker"`
	Maker        decimal.NullDecimal `json:"maker"`
	ContractSize decimal.NullDecimal `json:"contractSize"`
	Precision    MarketPrecision     `json:"precision"`
	Limits       MarketLimits        `json:"limits"`
	Info         Raw                 `json:"info"`
}

// Ticker represents a 24h market summary
type Ticker struct {
	Symbol     string              `json:"symbol"`
	Timestamp  int64               `json:"timestamp"` // ms
	High       decimal.NullDecimal `json:"high"`
	Low        decimal.NullDecimal `json:"low"`
	Bid        decimal.NullDecimal `json:"bid"`
	BidVolume  decimal.NullDecimal `json:"bidVolume"`
	Ask        decimal.NullDecimal `json:"ask"`
	AskVolume  decimal.NullDecimal `json:"askVolume"`
	Vwap       decimal.NullDecimal `json:"vwap"`
	Open       decimal.NullDecimal `json:"open"`
	Close      decimal.NullDecimal `json:"close"`
	Last       decimal.NullDecimal `json:"last"`
	BaseVolume decimal.NullDecimal `json:"baseVolume"`
	Info       Raw                 `json:"info"`
}

// PriceLevel represents a single price level in the orderbook.
// OrderID is only set on level 3 books.
type PriceLevel struct {
	Price   decimal.Decimal `json:"price"`
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"orderId,omitempty"`
}

// OrderBook represents an orderbook snapshot
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // best (highest) first
	Asks      []PriceLevel `json:"asks"` // best (lowest) first
	Timestamp int64        `json:"timestamp"`
	Nonce     int64        `json:"nonce"`
	Info      Raw          `json:"info"`
}

// Fee is a fee charged on a trade or order
type Fee struct {
	Cost     decimal.NullDecimal `json:"cost"`
	Currency string              `json:"currency"`
	Rate     decimal.NullDecimal `json:"rate"`
}

// Trade represents a public or private trade
type Trade struct {
	ID           string              `json:"id"`
	Order        string              `json:"order"`
	Timestamp    int64               `json:"timestamp"`
	Symbol       string              `json:"symbol"`
	Type         string              `json:"type"`
	TakerOrMaker string              `json:"takerOrMaker"`
	Side         string              `json:"side"`
	Price        decimal.NullDecimal `json:"price"`
	Amount       decimal.NullDecimal `json:"amount"`
	Cost         decimal.NullDecimal `json:"cost"`
	Fee          *Fee                `json:"fee"`
	Info         Raw                 `json:"info"`
}

// OHLCV is a single candle
type OHLCV struct {
	Timestamp int64               `json:"timestamp"`
	Open      decimal.NullDecimal `json:"open"`
	High      decimal.NullDecimal `json:"high"`
	Low       decimal.NullDecimal `json:"low"`
	Close     decimal.NullDecimal `json:"close"`
	Volume    decimal.NullDecimal `json:"volume"`
}

// Balance is the balance of one currency
type Balance struct {
	Free  decimal.NullDecimal `json:"free"`
	Used  decimal.NullDecimal `json:"used"`
	Total decimal.NullDecimal `json:"total"`
}

// Balances maps currency codes to balances
type Balances struct {
	Currencies map[string]Balance `json:"currencies"`
	Info       Raw                `json:"info"`
}

// Position represents an open derivatives position
type Position struct {
	Symbol                      string              `json:"symbol"`
	Timestamp                   int64               `json:"timestamp"`
	Side                        string              `json:"side"`
	Contracts                   decimal.NullDecimal `json:"contracts"`
	ContractSize                decimal.NullDecimal `json:"contractSize"`
	Notional                    decimal.NullDecimal `json:"notional"`
	InitialMargin               decimal.NullDecimal `json:"initialMargin"`
	InitialMarginPercentage     decimal.NullDecimal `json:"initialMarginPercentage"`
	MaintenanceMargin           decimal.NullDecimal `json:"maintenanceMargin"`
	MaintenanceMarginPercentage decimal.NullDecimal `json:"maintenanceMarginPercentage"`
	EntryPrice                  decimal.NullDecimal `json:"entryPrice"`
	Leverage                    decimal.NullDecimal `json:"leverage"`
	UnrealizedPnl               decimal.NullDecimal `json:"unrealizedPnl"`
	Percentage                  decimal.NullDecimal `json:"percentage"`
	MarginMode                  string              `json:"marginMode"`
	MarginRatio                 decimal.NullDecimal `json:"marginRatio"`
	LiquidationPrice            decimal.NullDecimal `json:"liquidationPrice"`
	MarkPrice                   decimal.NullDecimal `json:"markPrice"`
	Collateral                  decimal.NullDecimal `json:"collateral"`
	Info                        Raw                 `json:"info"`
}

// Order represents an order as reported by the exchange
type Order struct {
	ID            string              `json:"id"`
	ClientOrderID string              `json:"clientOrderId"`
	Timestamp     int64               `json:"timestamp"`
	Symbol        string              `json:"symbol"`
	Type          string              `json:"type"`
	Side          string              `json:"side"`
	Status        string              `json:"status"`
	TimeInForce   string              `json:"timeInForce"`
	PostOnly      *bool               `json:"postOnly"`
	Price         decimal.NullDecimal `json:"price"`
	StopPrice     decimal.NullDecimal `json:"stopPrice"`
	Amount        decimal.NullDecimal `json:"amount"`
	Filled        decimal.NullDecimal `json:"filled"`
	Remaining     decimal.NullDecimal `json:"remaining"`
	Cost          decimal.NullDecimal `json:"cost"`
	Average       decimal.NullDecimal `json:"average"`
	Fee           *Fee                `json:"fee"`
	Info          Raw                 `json:"info"`
}

// FundingRate represents the current and previous funding rate of a swap
type FundingRate struct {
	Symbol                   string              `json:"symbol"`
	FundingRate              decimal.NullDecimal `json:"fundingRate"`
	PreviousFundingRate      decimal.NullDecimal `json:"previousFundingRate"`
	PreviousFundingTimestamp int64               `json:"previousFundingTimestamp"`
	Info                     Raw                 `json:"info"`
}

// FundingPayment is a single funding fee paid or received on a position
type FundingPayment struct {
	ID           decimal.NullDecimal `json:"id"`
	Symbol       string              `json:"symbol"`
	Code         string              `json:"code"`
	Timestamp    int64               `json:"timestamp"`
	Amount       decimal.NullDecimal `json:"amount"`
	FundingRate  decimal.NullDecimal `json:"fundingRate"`
	MarkPrice    decimal.NullDecimal `json:"markPrice"`
	PositionQty  decimal.NullDecimal `json:"positionQty"`
	PositionCost decimal.NullDecimal `json:"positionCost"`
	Info         Raw                 `json:"info"`
}

// Capabilities declares which unified operations an exchange supports.
// A missing entry means unknown.
type Capabilities map[string]bool

// Supports reports whether the operation is declared as supported
func (c Capabilities) Supports(op string) bool {
	return c[op]
}

// MarketData is the read-only half of the unified interface
type MarketData interface {
	ID() ExchangeID
	Has() Capabilities
	LoadMarkets(ctx context.Context, reload bool) ([]*Market, error)
	FetchMarkets(ctx context.Context) ([]*Market, error)
	FetchTicker(ctx context.Context, symbol string) (*Ticker, error)
	FetchTickers(ctx context.Context, symbols []string) (map[string]*Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, level int) (*OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]*Trade, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]*OHLCV, error)
	FetchTime(ctx context.Context) (int64, error)
	FetchFundingRate(ctx context.Context, symbol string) (*FundingRate, error)
}

// Exchange is the full unified trading interface
type Exchange interface {
	MarketData

	FetchBalance(ctx context.Context, currency string) (*Balances, error)
	FetchPositions(ctx context.Context, symbols []string) ([]*Position, error)
	FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]*Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int) ([]*Order, error)
	FetchMyTrades(ctx context.Context, symbol string, since int64, limit int) ([]*Trade, error)
	FetchFundingHistory(ctx context.Context, symbol string, since int64, limit int) ([]*FundingPayment, error)
	CancelOrder(ctx context.Context, id string) (*Order, error)
}
