package main

import (
	"fmt"
	"strings"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/connector/poloniexfutures"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var (
	sinceFlag = &cli.Int64Flag{
		Name:  "since",
		Usage: "earliest timestamp in milliseconds",
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of entries returned",
	}
	symbolFlag = &cli.StringFlag{
		Name:    "symbol",
		Aliases: []string{"s"},
		Usage:   "the unified market symbol, e.g. BTC/USDT:USDT",
	}
)

// requireArg returns the nth positional argument or an error naming it
func requireArg(c *cli.Context, n int, name string) (string, error) {
	if c.Args().Len() <= n {
		return "", fmt.Errorf("%w: <%s>", errNoInput, name)
	}
	return c.Args().Get(n), nil
}

func parseDecimalFlag(c *cli.Context, name string) (decimal.NullDecimal, error) {
	s := c.String(name)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// =============================================================================
// Market data
// =============================================================================

var marketsCommand = &cli.Command{
	Name:   "markets",
	Usage:  "lists all active contracts",
	Action: getMarkets,
}

func getMarkets(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	markets, err := ex.LoadMarkets(ctx, true)
	if err != nil {
		return err
	}
	return jsonOutput(markets)
}

var tickerCommand = &cli.Command{
	Name:      "ticker",
	Usage:     "gets the ticker of one market",
	ArgsUsage: "<symbol>",
	Action:    getTicker,
}

func getTicker(c *cli.Context) error {
	symbol, err := requireArg(c, 0, "symbol")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	ticker, err := ex.FetchTicker(ctx, symbol)
	if err != nil {
		return err
	}
	return jsonOutput(ticker)
}

var tickersCommand = &cli.Command{
	Name:      "tickers",
	Usage:     "gets tickers of all markets, or of the listed ones",
	ArgsUsage: "[symbol...]",
	Action:    getTickers,
}

func getTickers(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	tickers, err := ex.FetchTickers(ctx, c.Args().Slice())
	if err != nil {
		return err
	}
	return jsonOutput(tickers)
}

var orderbookCommand = &cli.Command{
	Name:      "orderbook",
	Aliases:   []string{"ob"},
	Usage:     "gets an orderbook snapshot",
	ArgsUsage: "<symbol>",
	Action:    getOrderbook,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "level",
			Value: 2,
			Usage: "2 for aggregated levels, 3 for individual orders",
		},
	},
}

func getOrderbook(c *cli.Context) error {
	symbol, err := requireArg(c, 0, "symbol")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	ob, err := ex.FetchOrderBook(ctx, symbol, c.Int("level"))
	if err != nil {
		return err
	}
	return jsonOutput(ob)
}

var tradesCommand = &cli.Command{
	Name:      "trades",
	Usage:     "gets recent public trades",
	ArgsUsage: "<symbol>",
	Action:    getTrades,
	Flags:     []cli.Flag{sinceFlag, limitFlag},
}

func getTrades(c *cli.Context) error {
	symbol, err := requireArg(c, 0, "symbol")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	trades, err := ex.FetchTrades(ctx, symbol, c.Int64("since"), c.Int("limit"))
	if err != nil {
		return err
	}
	return jsonOutput(trades)
}

var ohlcvCommand = &cli.Command{
	Name:      "ohlcv",
	Aliases:   []string{"candles"},
	Usage:     "gets candles",
	ArgsUsage: "<symbol>",
	Action:    getOHLCV,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "timeframe",
			Aliases: []string{"t"},
			Value:   "1m",
			Usage:   "one of 1m 5m 15m 30m 1h 2h 4h 8h 12h 1d 1w",
		},
		sinceFlag,
		limitFlag,
	},
}

func getOHLCV(c *cli.Context) error {
	symbol, err := requireArg(c, 0, "symbol")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	candles, err := ex.FetchOHLCV(ctx, symbol, c.String("timeframe"), c.Int64("since"), c.Int("limit"))
	if err != nil {
		return err
	}
	return jsonOutput(candles)
}

var timeCommand = &cli.Command{
	Name:   "time",
	Usage:  "gets the server time in milliseconds",
	Action: getTime,
}

func getTime(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	ts, err := ex.FetchTime(ctx)
	if err != nil {
		return err
	}
	return jsonOutput(map[string]int64{"time": ts})
}

var statusCommand = &cli.Command{
	Name:   "status",
	Usage:  "gets the service status",
	Action: getStatus,
}

func getStatus(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	status, err := ex.FetchStatus(ctx)
	if err != nil {
		return err
	}
	return jsonOutput(status)
}

var fundingRateCommand = &cli.Command{
	Name:      "funding-rate",
	Usage:     "gets the current funding rate",
	ArgsUsage: "<symbol>",
	Action:    getFundingRate,
}

func getFundingRate(c *cli.Context) error {
	symbol, err := requireArg(c, 0, "symbol")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	rate, err := ex.FetchFundingRate(ctx, symbol)
	if err != nil {
		return err
	}
	return jsonOutput(rate)
}

// =============================================================================
// Account
// =============================================================================

var balanceCommand = &cli.Command{
	Name:   "balance",
	Usage:  "gets the account balance",
	Action: getBalance,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "currency",
			Aliases: []string{"c"},
			Usage:   "the settlement currency, e.g. USDT",
		},
	},
}

func getBalance(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	balances, err := ex.FetchBalance(ctx, c.String("currency"))
	if err != nil {
		return err
	}
	return jsonOutput(balances)
}

var positionsCommand = &cli.Command{
	Name:      "positions",
	Usage:     "gets open positions",
	ArgsUsage: "[symbol...]",
	Action:    getPositions,
}

func getPositions(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	positions, err := ex.FetchPositions(ctx, c.Args().Slice())
	if err != nil {
		return err
	}
	return jsonOutput(positions)
}

var ordersCommand = &cli.Command{
	Name:   "orders",
	Usage:  "lists orders by status",
	Action: getOrders,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "status",
			Value: connector.OrderStatusOpen,
			Usage: "open or closed",
		},
		symbolFlag,
		sinceFlag,
		limitFlag,
		&cli.Int64Flag{
			Name:  "until",
			Usage: "latest timestamp in milliseconds",
		},
		&cli.BoolFlag{
			Name:  "stop",
			Usage: "list untriggered stop orders",
		},
	},
}

func getOrders(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	orders, err := ex.FetchOrdersByStatus(ctx, c.String("status"), c.String("symbol"), c.Int64("since"), c.Int("limit"),
		poloniexfutures.OrdersQuery{Stop: c.Bool("stop"), Until: c.Int64("until")})
	if err != nil {
		return err
	}
	return jsonOutput(orders)
}

var orderCommand = &cli.Command{
	Name:      "order",
	Usage:     "gets one order by id or by client order id",
	ArgsUsage: "[id]",
	Action:    getOrder,
	Flags: []cli.Flag{
		symbolFlag,
		&cli.StringFlag{
			Name:  "clientoid",
			Usage: "look the order up by client order id",
		},
	},
}

func getOrder(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	order, err := ex.FetchOrder(ctx, c.Args().First(), c.String("symbol"), c.String("clientoid"))
	if err != nil {
		return err
	}
	return jsonOutput(order)
}

var myTradesCommand = &cli.Command{
	Name:   "my-trades",
	Usage:  "lists the account's fills",
	Action: getMyTrades,
	Flags:  []cli.Flag{symbolFlag, sinceFlag, limitFlag},
}

func getMyTrades(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	trades, err := ex.FetchMyTrades(ctx, c.String("symbol"), c.Int64("since"), c.Int("limit"))
	if err != nil {
		return err
	}
	return jsonOutput(trades)
}

var fundingHistoryCommand = &cli.Command{
	Name:      "funding-history",
	Usage:     "lists funding fees paid or received",
	ArgsUsage: "<symbol>",
	Action:    getFundingHistory,
	Flags:     []cli.Flag{sinceFlag, limitFlag},
}

func getFundingHistory(c *cli.Context) error {
	symbol, err := requireArg(c, 0, "symbol")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	payments, err := ex.FetchFundingHistory(ctx, symbol, c.Int64("since"), c.Int("limit"))
	if err != nil {
		return err
	}
	return jsonOutput(payments)
}

// =============================================================================
// Trading
// =============================================================================

var createOrderCommand = &cli.Command{
	Name:      "create-order",
	Usage:     "places an order",
	ArgsUsage: "<symbol> <buy|sell> <limit|market> <amount> [price]",
	Action:    createOrder,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "clientoid", Usage: "client order id, generated when empty"},
		&cli.StringFlag{Name: "leverage", Usage: "leverage, defaults to 1"},
		&cli.StringFlag{Name: "trigger", Usage: "trigger price, makes the order a stop order"},
		&cli.StringFlag{Name: "stop", Usage: "stop direction, up or down"},
		&cli.StringFlag{Name: "stoppricetype", Usage: "TP, IP or MP"},
		&cli.StringFlag{Name: "tif", Usage: "time in force, GTC or IOC"},
		&cli.BoolFlag{Name: "postonly"},
		&cli.BoolFlag{Name: "hidden"},
		&cli.BoolFlag{Name: "iceberg"},
		&cli.StringFlag{Name: "visiblesize", Usage: "visible size of an iceberg order"},
		&cli.BoolFlag{Name: "reduceonly"},
		&cli.BoolFlag{Name: "closeorder"},
		&cli.BoolFlag{Name: "forcehold"},
		&cli.StringFlag{Name: "remark"},
	},
}

func createOrder(c *cli.Context) error {
	if c.Args().Len() < 4 {
		return fmt.Errorf("%w: <symbol> <side> <type> <amount>", errNoInput)
	}
	symbol := c.Args().Get(0)
	side := strings.ToLower(c.Args().Get(1))
	orderType := strings.ToLower(c.Args().Get(2))

	amount, err := decimal.NewFromString(c.Args().Get(3))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	var price decimal.NullDecimal
	if c.Args().Len() > 4 {
		p, err := decimal.NewFromString(c.Args().Get(4))
		if err != nil {
			return fmt.Errorf("invalid price: %w", err)
		}
		price = decimal.NewNullDecimal(p)
	}

	params := poloniexfutures.OrderParams{
		ClientOrderID: c.String("clientoid"),
		Stop:          c.String("stop"),
		StopPriceType: c.String("stoppricetype"),
		TimeInForce:   c.String("tif"),
		PostOnly:      c.Bool("postonly"),
		Iceberg:       c.Bool("iceberg"),
		ReduceOnly:    c.Bool("reduceonly"),
		CloseOrder:    c.Bool("closeorder"),
		ForceHold:     c.Bool("forcehold"),
		Remark:        c.String("remark"),
	}
	if c.IsSet("hidden") {
		hidden := c.Bool("hidden")
		params.Hidden = &hidden
	}
	if params.Leverage, err = parseDecimalFlag(c, "leverage"); err != nil {
		return err
	}
	if params.TriggerPrice, err = parseDecimalFlag(c, "trigger"); err != nil {
		return err
	}
	if params.VisibleSize, err = parseDecimalFlag(c, "visiblesize"); err != nil {
		return err
	}

	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	order, err := ex.CreateOrder(ctx, symbol, orderType, side, amount, price, params)
	if err != nil {
		return err
	}
	return jsonOutput(order)
}

var cancelOrderCommand = &cli.Command{
	Name:      "cancel-order",
	Usage:     "cancels one order",
	ArgsUsage: "<id>",
	Action:    cancelOrder,
}

func cancelOrder(c *cli.Context) error {
	id, err := requireArg(c, 0, "id")
	if err != nil {
		return err
	}
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	order, err := ex.CancelOrder(ctx, id)
	if err != nil {
		return err
	}
	return jsonOutput(order)
}

var cancelAllOrdersCommand = &cli.Command{
	Name:   "cancel-all",
	Usage:  "cancels all open orders",
	Action: cancelAllOrders,
	Flags: []cli.Flag{
		symbolFlag,
		&cli.BoolFlag{
			Name:  "stop",
			Usage: "cancel untriggered stop orders instead",
		},
	},
}

func cancelAllOrders(c *cli.Context) error {
	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	orders, err := ex.CancelAllOrders(ctx, c.String("symbol"), c.Bool("stop"))
	if err != nil {
		return err
	}
	return jsonOutput(orders)
}

var setMarginModeCommand = &cli.Command{
	Name:      "set-margin-mode",
	Usage:     "switches a market between isolated and cross margin",
	ArgsUsage: "<symbol> <isolated|cross>",
	Action:    setMarginMode,
}

func setMarginMode(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("%w: <symbol> <isolated|cross>", errNoInput)
	}
	marginType, ok := poloniexfutures.MarginTypeFor(strings.ToLower(c.Args().Get(1)))
	if !ok {
		return fmt.Errorf("unknown margin mode %q", c.Args().Get(1))
	}

	ex, ctx, cancel := setupExchange(c)
	defer cancel()

	resp, err := ex.SetMarginMode(ctx, c.Args().Get(0), marginType)
	if err != nil {
		return err
	}
	return jsonOutput(resp)
}
