package poloniexfutures

import (
	"fmt"
	"sort"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/precise"

	"github.com/shopspring/decimal"
)

// nanosToMillis reads a nanosecond timestamp and truncates it to milliseconds
func nanosToMillis(raw connector.Raw, key string) int64 {
	d := raw.Decimal(key)
	if !d.Valid {
		return 0
	}
	return d.Decimal.Shift(-6).IntPart()
}

func timestamp(raw connector.Raw, key string) int64 {
	ts, _ := raw.Int64(key)
	return ts
}

// parseMarket converts one contracts/active entry
//
//	{
//	  "symbol": "BTCUSDTPERP", "rootSymbol": "USDT", "baseCurrency": "XBT",
//	  "quoteCurrency": "USDT", "isInverse": false, "multiplier": "0.001",
//	  "lotSize": "1", "indexPriceTickSize": "0.01", "tickSize": "1",
//	  "maxOrderQty": "1000000", "maxPrice": "1000000.0000000000",
//	  "maxLeverage": "75", "takerFeeRate": "0.00075", "makerFeeRate": "0.00010",
//	  "status": "Open"
//	}
func (e *Exchange) parseMarket(raw connector.Raw) *connector.Market {
	baseID := raw.String("baseCurrency")
	quoteID := raw.String("quoteCurrency")
	settleID := raw.String("rootSymbol")
	base := e.markets.CurrencyCode(baseID)
	quote := e.markets.CurrencyCode(quoteID)
	settle := e.markets.CurrencyCode(settleID)
	inverse := raw.Truthy("isInverse")
	lotSize := raw.Decimal("lotSize")
	tickSize := raw.Decimal("indexPriceTickSize")

	return &connector.Market{
		ID:           raw.String("symbol"),
		Symbol:       base + "/" + quote + ":" + settle,
		Base:         base,
		Quote:        quote,
		Settle:       settle,
		BaseID:       baseID,
		QuoteID:      quoteID,
		SettleID:     settleID,
		Type:         "swap",
		Swap:         true,
		Contract:     true,
		Linear:       !inverse,
		Inverse:      inverse,
		Active:       raw.String("status") == "Open",
		Taker:        raw.Decimal("takerFeeRate"),
		Maker:        raw.Decimal("makerFeeRate"),
		ContractSize: precise.ToDecimal(precise.Abs(raw.String("multiplier"))),
		Precision: connector.MarketPrecision{
			Amount: lotSize,
			Price:  tickSize,
		},
		Limits: connector.MarketLimits{
			Leverage: connector.MinMax{
				Min: decimal.NewNullDecimal(decimal.NewFromInt(1)),
				Max: raw.Decimal("maxLeverage"),
			},
			Amount: connector.MinMax{Min: lotSize, Max: raw.Decimal("maxOrderQty")},
			Price:  connector.MinMax{Min: tickSize, Max: raw.Decimal("maxPrice")},
		},
		Info: raw,
	}
}

// parseTicker converts a v2 ticker entry
func (e *Exchange) parseTicker(raw connector.Raw, market *connector.Market) *connector.Ticker {
	last := raw.Decimal("price")
	return &connector.Ticker{
		Symbol:     e.markets.SafeSymbol(raw.String("symbol"), market),
		Timestamp:  nanosToMillis(raw, "ts"),
		Bid:        raw.Decimal("bestBidPrice"),
		BidVolume:  raw.Decimal("bestBidSize"),
		Ask:        raw.Decimal("bestAskPrice"),
		AskVolume:  raw.Decimal("bestAskSize"),
		Close:      last,
		Last:       last,
		BaseVolume: raw.Decimal("size"),
		Info:       raw,
	}
}

// parseOrderBook converts a level 2 or level 3 snapshot. Level 2 rows are
// [price, size]; level 3 rows are [orderId, price, size, ts].
func parseOrderBook(raw connector.Raw, symbol string, level int) *connector.OrderBook {
	priceIdx, amountIdx := 0, 1
	if level == 3 {
		priceIdx, amountIdx = 1, 2
	}
	priceKey := fmt.Sprintf("[%d]", priceIdx)
	amountKey := fmt.Sprintf("[%d]", amountIdx)

	side := func(key string) []connector.PriceLevel {
		rows := raw.Items(key)
		levels := make([]connector.PriceLevel, 0, len(rows))
		for _, row := range rows {
			price := row.Decimal(priceKey)
			amount := row.Decimal(amountKey)
			if !price.Valid || !amount.Valid {
				continue
			}
			pl := connector.PriceLevel{Price: price.Decimal, Amount: amount.Decimal}
			if level == 3 {
				pl.OrderID = row.String("[0]")
			}
			levels = append(levels, pl)
		}
		return levels
	}

	bids := side("bids")
	asks := side("asks")
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	nonce, _ := raw.Int64("sequence")
	return &connector.OrderBook{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: nanosToMillis(raw, "ts"),
		Nonce:     nonce,
		Info:      raw,
	}
}

// parseTrade converts a public trade/history entry or a private fill
func (e *Exchange) parseTrade(raw connector.Raw, market *connector.Market) *connector.Trade {
	market = e.markets.SafeMarket(raw.String("symbol"), market)

	var ts int64
	if _, ok := raw.Int64("ts"); ok {
		ts = nanosToMillis(raw, "ts")
	} else if created, ok := raw.Int64("createdAt"); ok {
		ts = created
		// v1 fills report createdAt in seconds
		if raw.Has("dealValue") {
			ts *= 1000
		}
	}

	side := raw.String("side")
	var fee *connector.Fee
	if feeCost := raw.String("fee"); feeCost != "" {
		currency := e.markets.CurrencyCode(raw.String("feeCurrency"))
		if currency == "" {
			if side == connector.SideSell {
				currency = market.Quote
			} else {
				currency = market.Base
			}
		}
		fee = &connector.Fee{
			Cost:     precise.ToDecimal(feeCost),
			Currency: currency,
			Rate:     raw.Decimal("feeRate"),
		}
	}

	orderType := raw.String("orderType")
	if orderType == "match" {
		orderType = ""
	}

	price := raw.String("price")
	amount := raw.String("size")
	cost := raw.String("value")
	if cost == "" {
		cost = tradeCost(price, amount, market)
	}

	return &connector.Trade{
		ID:           raw.String("tradeId"),
		Order:        raw.String("orderId"),
		Timestamp:    ts,
		Symbol:       market.Symbol,
		Type:         orderType,
		TakerOrMaker: raw.String("liquidity"),
		Side:         side,
		Price:        precise.ToDecimal(price),
		Amount:       precise.ToDecimal(amount),
		Cost:         precise.ToDecimal(cost),
		Fee:          fee,
		Info:         raw,
	}
}

// tradeCost derives price * amount * contractSize when the venue omits the value.
// Inverse contracts are priced in 1 / price.
func tradeCost(price, amount string, market *connector.Market) string {
	multiplier := price
	if contractSize := precise.FromDecimal(market.ContractSize); contractSize != "" {
		if market.Inverse {
			multiplier = precise.Div("1", price)
		}
		multiplier = precise.Mul(multiplier, contractSize)
	}
	return precise.Mul(multiplier, amount)
}

// parseOHLCV converts one kline row [time, open, high, low, close, volume]
func parseOHLCV(row connector.Raw) *connector.OHLCV {
	ts, _ := row.Int64("[0]")
	return &connector.OHLCV{
		Timestamp: ts,
		Open:      row.Decimal("[1]"),
		High:      row.Decimal("[2]"),
		Low:       row.Decimal("[3]"),
		Close:     row.Decimal("[4]"),
		Volume:    row.Decimal("[5]"),
	}
}

// parsePosition converts one positions entry
func (e *Exchange) parsePosition(raw connector.Raw, market *connector.Market) *connector.Position {
	market = e.markets.SafeMarket(raw.String("symbol"), market)

	size := raw.String("currentQty")
	var side string
	if precise.Gt(size, "0") {
		side = connector.PositionSideLong
	} else if precise.Lt(size, "0") {
		side = connector.PositionSideShort
	}

	notional := precise.Abs(raw.String("posCost"))
	initialMargin := raw.String("posInit")
	unrealisedPnl := raw.String("unrealisedPnl")

	marginMode := connector.MarginModeIsolated
	if raw.Truthy("crossMode") {
		marginMode = connector.MarginModeCross
	}

	return &connector.Position{
		Symbol:                      market.Symbol,
		Timestamp:                   timestamp(raw, "currentTimestamp"),
		Side:                        side,
		Contracts:                   precise.ToDecimal(precise.Abs(size)),
		ContractSize:                market.ContractSize,
		Notional:                    precise.ToDecimal(notional),
		InitialMargin:               precise.ToDecimal(initialMargin),
		InitialMarginPercentage:     precise.ToDecimal(precise.Div(initialMargin, notional)),
		MaintenanceMargin:           raw.Decimal("posMaint"),
		MaintenanceMarginPercentage: raw.Decimal("maintMarginReq"),
		EntryPrice:                  raw.Decimal("avgEntryPrice"),
		Leverage:                    raw.Decimal("realLeverage"),
		UnrealizedPnl:               precise.ToDecimal(unrealisedPnl),
		Percentage:                  precise.ToDecimal(precise.Div(unrealisedPnl, initialMargin)),
		MarginMode:                  marginMode,
		LiquidationPrice:            raw.Decimal("liquidationPrice"),
		MarkPrice:                   raw.Decimal("markPrice"),
		Collateral:                  raw.Decimal("maintMargin"),
		Info:                        raw,
	}
}

// parseOrder converts an order detail or an order list entry
func (e *Exchange) parseOrder(raw connector.Raw, market *connector.Market) *connector.Order {
	market = e.markets.SafeMarket(raw.String("symbol"), market)

	amount := raw.String("size")
	filled := raw.String("dealSize")
	rawCost := raw.String("dealFunds")
	if rawCost == "" {
		rawCost = raw.String("filledValue")
	}
	cost := precise.Div(rawCost, raw.String("leverage"))

	var average string
	if precise.Gt(filled, "0") {
		contractSize := precise.FromDecimal(market.ContractSize)
		if market.Linear {
			average = precise.Div(rawCost, precise.Mul(contractSize, filled))
		} else {
			average = precise.Div(precise.Mul(contractSize, filled), rawCost)
		}
	}

	status := connector.OrderStatusClosed
	if raw.Truthy("isActive") {
		status = connector.OrderStatusOpen
	}
	if raw.Truthy("cancelExist") {
		status = connector.OrderStatusCanceled
	}

	var postOnly *bool
	if v, ok := raw.Bool("postOnly"); ok {
		postOnly = &v
	}

	return &connector.Order{
		ID:            raw.String("id"),
		ClientOrderID: raw.String("clientOid"),
		Timestamp:     timestamp(raw, "createdAt"),
		Symbol:        market.Symbol,
		Type:          raw.String("type"),
		Side:          raw.String("side"),
		Status:        status,
		TimeInForce:   raw.String("timeInForce"),
		PostOnly:      postOnly,
		Price:         raw.Decimal("price"),
		StopPrice:     raw.Decimal("stopPrice"),
		Amount:        precise.ToDecimal(amount),
		Filled:        precise.ToDecimal(filled),
		Remaining:     precise.ToDecimal(precise.Sub(amount, filled)),
		Cost:          precise.ToDecimal(cost),
		Average:       precise.ToDecimal(average),
		Fee: &connector.Fee{
			Currency: e.markets.CurrencyCode(raw.String("feeCurrency")),
			Cost:     raw.Decimal("fee"),
		},
		Info: raw,
	}
}

// parseBalance converts an account-overview response
func (e *Exchange) parseBalance(response connector.Raw) *connector.Balances {
	balances := &connector.Balances{
		Currencies: make(map[string]connector.Balance),
		Info:       response,
	}

	data := response.Get("data")
	code := e.markets.CurrencyCode(data.String("currency"))
	if code == "" {
		return balances
	}

	free := data.String("availableBalance")
	total := data.String("accountEquity")
	balances.Currencies[code] = connector.Balance{
		Free:  precise.ToDecimal(free),
		Used:  precise.ToDecimal(precise.Sub(total, free)),
		Total: precise.ToDecimal(total),
	}
	return balances
}

// parseFundingRate converts a funding-rate/{symbol}/current response
func parseFundingRate(data connector.Raw, market *connector.Market) *connector.FundingRate {
	return &connector.FundingRate{
		Symbol:                   market.Symbol,
		FundingRate:              data.Decimal("predictedValue"),
		PreviousFundingRate:      data.Decimal("value"),
		PreviousFundingTimestamp: timestamp(data, "timePoint"),
		Info:                     data,
	}
}

// parseFundingPayment converts one funding-history entry
func (e *Exchange) parseFundingPayment(raw connector.Raw, symbol string) *connector.FundingPayment {
	return &connector.FundingPayment{
		ID:           raw.Decimal("id"),
		Symbol:       symbol,
		Code:         e.markets.CurrencyCode(raw.String("settleCurrency")),
		Timestamp:    timestamp(raw, "timePoint"),
		Amount:       raw.Decimal("funding"),
		FundingRate:  raw.Decimal("fundingRate"),
		MarkPrice:    raw.Decimal("markPrice"),
		PositionQty:  raw.Decimal("positionQty"),
		PositionCost: raw.Decimal("positionCost"),
		Info:         raw,
	}
}
