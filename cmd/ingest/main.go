package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crossspread-pfutures/internal/config"
	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/connector/poloniexfutures"
	"crossspread-pfutures/internal/credentials"
	"crossspread-pfutures/internal/loader"
	"crossspread-pfutures/internal/metrics"
	"crossspread-pfutures/internal/publisher"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.App.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("rest_url", cfg.Exchange.RESTURL).
		Str("redis", cfg.Redis.Addr()).
		Str("metrics", cfg.Metrics.Addr()).
		Strs("symbols", cfg.Poller.Symbols).
		Dur("interval", cfg.Poller.Interval).
		Int("orderbook_level", cfg.Poller.OrderbookLevel).
		Msg("Starting Poloniex Futures market data service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start metrics server
	metricsServer := metrics.NewServer(cfg.Metrics.Addr())
	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()
	defer metricsServer.Stop()

	// Create Redis publisher
	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	pub, err := publisher.NewRedisPublisher(pingCtx, cfg.Redis.Addr())
	pingCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis publisher")
	}
	defer pub.Close()

	creds := resolveCredentials(ctx, cfg)

	exchange := poloniexfutures.New(poloniexfutures.Config{
		BaseURL: cfg.Exchange.RESTURL,
		Credentials: poloniexfutures.Credentials{
			APIKey:     creds.APIKey,
			Secret:     creds.APISecret,
			Passphrase: creds.Passphrase,
		},
		Timeout: cfg.Exchange.RequestTimeout,
	})

	logExchangeStatus(ctx, exchange)
	if !creds.Empty() {
		go logAccountSummary(ctx, exchange)
	}

	poller := loader.NewRestPoller(exchange, pub, loader.PollerConfig{
		Symbols:        cfg.Poller.Symbols,
		OrderbookLevel: cfg.Poller.OrderbookLevel,
		Interval:       cfg.Poller.Interval,
	})

	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx)
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("Poller stopped")
		}
	}

	log.Info().Msg("Market data service stopped")
}

// resolveCredentials prefers PF_API_* variables, then the backend API.
// Failures leave the service running on public endpoints only.
func resolveCredentials(ctx context.Context, cfg *config.Config) credentials.ExchangeCredentials {
	local := credentials.ExchangeCredentials{
		APIKey:     cfg.Exchange.APIKey,
		APISecret:  cfg.Exchange.APISecret,
		Passphrase: cfg.Exchange.APIPassphrase,
	}

	var fetcher *credentials.CredentialsFetcher
	if cfg.Backend.URL != "" {
		fetcher = credentials.NewCredentialsFetcher(cfg.Backend.URL, cfg.Backend.ServiceSecret)
	}

	creds, err := credentials.Resolve(ctx, local, fetcher, poloniexfutures.ID)
	if err != nil {
		log.Warn().Err(err).Msg("No usable API credentials, using public endpoints only")
		return credentials.ExchangeCredentials{}
	}
	if !creds.Empty() {
		log.Info().Str("exchange", poloniexfutures.ID).Msg("Found API credentials, will use authenticated endpoints")
	}
	return creds
}

func logExchangeStatus(ctx context.Context, exchange *poloniexfutures.Exchange) {
	status, err := exchange.FetchStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Str("kind", connector.KindName(err)).Msg("Failed to fetch exchange status")
		return
	}

	serverTime, err := exchange.FetchTime(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch server time")
		return
	}

	log.Info().
		Str("status", status.Status).
		Str("msg", status.Message).
		Dur("clock_skew", time.Since(time.UnixMilli(serverTime))).
		Msg("Exchange status")
}

func logAccountSummary(ctx context.Context, exchange *poloniexfutures.Exchange) {
	balances, err := exchange.FetchBalance(ctx, "")
	if err != nil {
		log.Warn().Err(err).Str("kind", connector.KindName(err)).Msg("Failed to fetch balance")
		return
	}
	for code, b := range balances.Currencies {
		log.Info().
			Str("currency", code).
			Str("free", b.Free.Decimal.String()).
			Str("total", b.Total.Decimal.String()).
			Msg("Account balance")
	}

	positions, err := exchange.FetchPositions(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch positions")
		return
	}
	for _, p := range positions {
		log.Info().
			Str("symbol", p.Symbol).
			Str("side", p.Side).
			Str("contracts", p.Contracts.Decimal.String()).
			Str("unrealized_pnl", p.UnrealizedPnl.Decimal.String()).
			Msg("Open position")
	}
}
