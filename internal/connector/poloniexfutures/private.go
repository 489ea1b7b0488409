package poloniexfutures

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/precise"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Private Account APIs
// =============================================================================

// FetchBalance fetches the account overview. currency selects the settlement
// currency; empty means the exchange default.
func (e *Exchange) FetchBalance(ctx context.Context, currency string) (*connector.Balances, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	params := map[string]interface{}{}
	if currency != "" {
		params["currency"] = e.markets.CurrencyID(currency)
	}

	body, err := e.request(ctx, Private, http.MethodGet, "account-overview", params)
	if err != nil {
		return nil, err
	}
	return e.parseBalance(body), nil
}

// FetchPositions fetches all open positions. A non-empty symbols list
// restricts the result.
func (e *Exchange) FetchPositions(ctx context.Context, symbols []string) ([]*connector.Position, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	body, err := e.request(ctx, Private, http.MethodGet, "positions", nil)
	if err != nil {
		return nil, err
	}

	var positions []*connector.Position
	for _, item := range body.Items("data") {
		positions = append(positions, e.parsePosition(item, nil))
	}
	return connector.FilterSymbols(positions, symbols, func(p *connector.Position) string { return p.Symbol }), nil
}

// FetchFundingHistory fetches funding fees paid or received on a market
func (e *Exchange) FetchFundingHistory(ctx context.Context, symbol string, since int64, limit int) ([]*connector.FundingPayment, error) {
	if symbol == "" {
		return nil, connector.NewError(connector.ErrArgumentsRequired, "%s fetchFundingHistory() requires a symbol argument", ID)
	}

	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"symbol": market.ID,
	}
	if since > 0 {
		params["startAt"] = since
	}
	if limit > 0 {
		params["maxCount"] = limit
	}

	body, err := e.request(ctx, Private, http.MethodGet, "funding-history", params)
	if err != nil {
		return nil, err
	}

	items := body.Items("data", "dataList")
	payments := make([]*connector.FundingPayment, 0, len(items))
	for _, item := range items {
		payments = append(payments, e.parseFundingPayment(item, symbol))
	}
	return payments, nil
}

// SetMarginMode switches a market between isolated (0) and cross (1) margin
func (e *Exchange) SetMarginMode(ctx context.Context, symbol string, marginType int) (connector.Raw, error) {
	if symbol == "" {
		return nil, connector.NewError(connector.ErrArgumentsRequired, "%s setMarginMode() requires a symbol argument", ID)
	}
	if marginType != MarginTypeIsolated && marginType != MarginTypeCross {
		return nil, connector.NewError(connector.ErrArgumentsRequired, "%s setMarginMode() marginMode must be 0 (isolated) or 1 (cross)", ID)
	}

	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return e.request(ctx, Private, http.MethodPost, "marginType/change", map[string]interface{}{
		"symbol":     market.ID,
		"marginType": marginType,
	})
}

// =============================================================================
// Private Trading APIs
// =============================================================================

// CreateOrder places a limit or market order and returns its id.
//
// amount is in contracts and must be at least 1. A trigger price turns the
// order into a stop order whose direction follows the side.
func (e *Exchange) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params OrderParams) (*connector.Order, error) {
	if amount.LessThan(decimal.NewFromInt(1)) {
		return nil, connector.NewError(connector.ErrInvalidOrder, "%s createOrder() minimum contract order amount is 1", ID)
	}
	if orderType == connector.OrderTypeLimit && !price.Valid {
		return nil, &connector.ExchangeError{
			Kinds:   []error{connector.ErrArgumentsRequired, connector.ErrInvalidOrder},
			Message: ID + " createOrder() requires a price argument for limit orders",
		}
	}
	if params.Stop != "" && !params.TriggerPrice.Valid {
		return nil, connector.NewError(connector.ErrInvalidOrder, "%s createOrder() requires a trigger price for stop orders", ID)
	}
	switch params.StopPriceType {
	case "", StopPriceTypeTrade, StopPriceTypeIndex, StopPriceTypeMark:
	default:
		return nil, connector.NewError(connector.ErrBadRequest, "%s createOrder() stopPriceType must be %s, %s or %s", ID, StopPriceTypeTrade, StopPriceTypeIndex, StopPriceTypeMark)
	}
	if params.PostOnly && params.Hidden != nil {
		return nil, connector.NewError(connector.ErrBadRequest, "%s createOrder() does not support the postOnly parameter together with a hidden parameter", ID)
	}
	if params.Iceberg && !params.VisibleSize.Valid {
		return nil, &connector.ExchangeError{
			Kinds:   []error{connector.ErrArgumentsRequired, connector.ErrInvalidOrder},
			Message: ID + " createOrder() requires a visibleSize parameter for iceberg orders",
		}
	}

	market, err := e.marketFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	clientOid := params.ClientOrderID
	if clientOid == "" {
		clientOid = e.newClientOid()
	}

	size := precise.TruncateToStep(amount, market.Precision.Amount.Decimal)
	var leverage interface{} = 1
	if params.Leverage.Valid {
		leverage = json.Number(params.Leverage.Decimal.String())
	}

	request := map[string]interface{}{
		"clientOid": clientOid,
		"side":      side,
		"symbol":    market.ID,
		"type":      orderType,
		"size":      size.IntPart(),
		"leverage":  leverage,
	}

	if params.TriggerPrice.Valid {
		request["stop"] = StopDown
		if side == connector.SideBuy {
			request["stop"] = StopUp
		}
		if params.Stop != "" {
			request["stop"] = params.Stop
		}
		stopPriceType := params.StopPriceType
		if stopPriceType == "" {
			stopPriceType = StopPriceTypeTrade
		}
		request["stopPriceType"] = stopPriceType
		request["stopPrice"] = priceToPrecision(market, params.TriggerPrice.Decimal)
	}

	if orderType == connector.OrderTypeLimit {
		request["price"] = priceToPrecision(market, price.Decimal)
		if params.TimeInForce != "" {
			request["timeInForce"] = strings.ToUpper(params.TimeInForce)
		}
	}

	if params.PostOnly {
		request["postOnly"] = true
	}
	if params.Hidden != nil {
		request["hidden"] = *params.Hidden
	}
	if params.Iceberg {
		request["iceberg"] = true
		request["visibleSize"] = json.Number(params.VisibleSize.Decimal.String())
	}
	if params.ReduceOnly {
		request["reduceOnly"] = true
	}
	if params.CloseOrder {
		request["closeOrder"] = true
	}
	if params.ForceHold {
		request["forceHold"] = true
	}
	if params.Remark != "" {
		request["remark"] = params.Remark
	}
	for k, v := range params.Extra {
		request[k] = v
	}

	body, err := e.request(ctx, Private, http.MethodPost, "orders", request)
	if err != nil {
		return nil, err
	}
	return &connector.Order{
		ID:   body.String("data", "orderId"),
		Info: body,
	}, nil
}

// priceToPrecision rounds price to the market tick size
func priceToPrecision(market *connector.Market, price decimal.Decimal) string {
	if !market.Precision.Price.Valid {
		return price.String()
	}
	return precise.RoundToStep(price, market.Precision.Price.Decimal).String()
}

// CancelOrder cancels one order and returns its id
func (e *Exchange) CancelOrder(ctx context.Context, id string) (*connector.Order, error) {
	if id == "" {
		return nil, connector.NewError(connector.ErrArgumentsRequired, "%s cancelOrder() requires an id argument", ID)
	}
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	body, err := e.request(ctx, Private, http.MethodDelete, "orders/{order-id}", map[string]interface{}{
		"order-id": id,
	})
	if err != nil {
		return nil, err
	}

	ids := body.Strings("data", "cancelledOrderIds")
	if len(ids) == 0 {
		return nil, connector.NewError(connector.ErrInvalidOrder, "%s cancelOrder() order already cancelled", ID)
	}
	return &connector.Order{ID: ids[0], Info: body}, nil
}

// CancelAllOrders cancels every open order, optionally on one market only.
// stop targets untriggered stop orders instead of regular orders.
func (e *Exchange) CancelAllOrders(ctx context.Context, symbol string, stop bool) ([]*connector.Order, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	params := map[string]interface{}{}
	if symbol != "" {
		market, err := e.market(symbol)
		if err != nil {
			return nil, err
		}
		params["symbol"] = market.ID
	}

	body, err := e.request(ctx, Private, http.MethodDelete, OrderEndpointFor(stop).Path(), params)
	if err != nil {
		return nil, err
	}

	ids := body.Strings("data", "cancelledOrderIds")
	orders := make([]*connector.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, &connector.Order{ID: id, Info: body})
	}
	return orders, nil
}

// FetchOrdersByStatus lists orders by status: "open"/"active" or
// "closed"/"done". Closed listings exclude orders the exchange canceled.
func (e *Exchange) FetchOrdersByStatus(ctx context.Context, status, symbol string, since int64, limit int, query OrdersQuery) ([]*connector.Order, error) {
	switch status {
	case connector.OrderStatusClosed:
		status = StatusDone
	case connector.OrderStatusOpen:
		status = StatusActive
	}

	params := map[string]interface{}{}
	if !query.Stop {
		params["status"] = status
	} else if status != StatusActive {
		return nil, connector.NewError(connector.ErrBadRequest, "%s fetchOrdersByStatus() can only fetch untriggered stop orders", ID)
	}

	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	var market *connector.Market
	if symbol != "" {
		m, err := e.market(symbol)
		if err != nil {
			return nil, err
		}
		market = m
		params["symbol"] = market.ID
	}
	if since > 0 {
		params["startAt"] = since
	}
	if query.Until > 0 {
		params["endAt"] = query.Until
	}

	body, err := e.request(ctx, Private, http.MethodGet, OrderEndpointFor(query.Stop).Path(), params)
	if err != nil {
		return nil, err
	}

	var orders []*connector.Order
	for _, item := range body.Items("data", "items") {
		if status == StatusDone && item.Truthy("cancelExist") {
			continue
		}
		orders = append(orders, e.parseOrder(item, market))
	}
	return connector.SortBySinceLimit(orders, since, limit), nil
}

// FetchOpenOrders lists active orders
func (e *Exchange) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]*connector.Order, error) {
	return e.FetchOrdersByStatus(ctx, StatusActive, symbol, since, limit, OrdersQuery{})
}

// FetchClosedOrders lists filled orders
func (e *Exchange) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int) ([]*connector.Order, error) {
	return e.FetchOrdersByStatus(ctx, connector.OrderStatusClosed, symbol, since, limit, OrdersQuery{})
}

// FetchOrder fetches one order by exchange id, or by client order id when id is empty
func (e *Exchange) FetchOrder(ctx context.Context, id, symbol, clientOrderID string) (*connector.Order, error) {
	path := "orders/{order-id}"
	params := map[string]interface{}{}
	if id == "" {
		if clientOrderID == "" {
			return nil, connector.NewError(connector.ErrInvalidOrder, "%s fetchOrder() requires parameter id or params.clientOid", ID)
		}
		path = "orders/byClientOid"
		params["clientOid"] = clientOrderID
	} else {
		params["order-id"] = id
	}

	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	var market *connector.Market
	if symbol != "" {
		m, err := e.market(symbol)
		if err != nil {
			return nil, err
		}
		market = m
	}

	body, err := e.request(ctx, Private, http.MethodGet, path, params)
	if err != nil {
		return nil, err
	}
	return e.parseOrder(body.Get("data"), market), nil
}

// FetchMyTrades fetches the account's fills
func (e *Exchange) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int) ([]*connector.Trade, error) {
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	params := map[string]interface{}{}
	var market *connector.Market
	if symbol != "" {
		m, err := e.market(symbol)
		if err != nil {
			return nil, err
		}
		market = m
		params["symbol"] = market.ID
	}
	if since > 0 {
		params["startAt"] = since
	}

	body, err := e.request(ctx, Private, http.MethodGet, "fills", params)
	if err != nil {
		return nil, err
	}

	var trades []*connector.Trade
	for _, item := range body.Items("data", "items") {
		trades = append(trades, e.parseTrade(item, market))
	}
	return connector.SortBySinceLimit(trades, since, limit), nil
}
