package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/connector/poloniexfutures"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var (
	restURL    string
	creds      poloniexfutures.Credentials
	timeout    time.Duration
	verbose    bool
	errNoInput = errors.New("missing required argument")
)

const defaultTimeout = time.Second * 30

func jsonOutput(in any) error {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(j))
	return nil
}

// setupExchange builds the adapter and a request context bound to the timeout flag
func setupExchange(c *cli.Context) (*poloniexfutures.Exchange, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	ex := poloniexfutures.New(poloniexfutures.Config{
		BaseURL:     restURL,
		Credentials: creds,
		Timeout:     timeout,
	})
	return ex, ctx, cancel
}

func main() {
	app := cli.NewApp()
	app.Name = "pfctl"
	app.EnableBashCompletion = true
	app.Usage = "command line interface for the Poloniex Futures REST API"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "url",
			Value:       poloniexfutures.RESTBaseURL,
			Usage:       "the REST base URL",
			EnvVars:     []string{"PF_REST_URL"},
			Destination: &restURL,
		},
		&cli.StringFlag{
			Name:        "apikey",
			Usage:       "the API key for private commands",
			EnvVars:     []string{"PF_API_KEY"},
			Destination: &creds.APIKey,
		},
		&cli.StringFlag{
			Name:        "apisecret",
			Usage:       "the API secret for private commands",
			EnvVars:     []string{"PF_API_SECRET"},
			Destination: &creds.Secret,
		},
		&cli.StringFlag{
			Name:        "passphrase",
			Usage:       "the API passphrase for private commands",
			EnvVars:     []string{"PF_API_PASSPHRASE"},
			Destination: &creds.Passphrase,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Value:       defaultTimeout,
			Usage:       "the context timeout for a command",
			Destination: &timeout,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "log every request",
			Destination: &verbose,
		},
	}
	app.Before = func(c *cli.Context) error {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	}
	app.Commands = []*cli.Command{
		marketsCommand,
		tickerCommand,
		tickersCommand,
		orderbookCommand,
		tradesCommand,
		ohlcvCommand,
		timeCommand,
		statusCommand,
		fundingRateCommand,
		balanceCommand,
		positionsCommand,
		ordersCommand,
		orderCommand,
		myTradesCommand,
		fundingHistoryCommand,
		createOrderCommand,
		cancelOrderCommand,
		cancelAllOrdersCommand,
		setMarginModeCommand,
	}

	// Flags and env vars win over .env values
	_ = godotenv.Load()

	if err := app.Run(os.Args); err != nil {
		if kind := connector.KindName(err); kind != "" {
			fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
