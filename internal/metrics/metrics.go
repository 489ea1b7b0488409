package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics for the futures market data poller
var (
	// Orderbook metrics
	OrderbookSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pf_orderbook_snapshots_total",
			Help: "Total number of orderbook snapshots fetched",
		},
		[]string{"exchange", "symbol"},
	)

	OrderbookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_orderbook_depth",
			Help: "Current orderbook depth (number of levels)",
		},
		[]string{"exchange", "symbol", "side"},
	)

	OrderbookBestBid = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_orderbook_best_bid",
			Help: "Current best bid price",
		},
		[]string{"exchange", "symbol"},
	)

	OrderbookBestAsk = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_orderbook_best_ask",
			Help: "Current best ask price",
		},
		[]string{"exchange", "symbol"},
	)

	OrderbookSpread = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_orderbook_spread_bps",
			Help: "Current bid-ask spread in basis points",
		},
		[]string{"exchange", "symbol"},
	)

	// Ticker metrics
	TickerLast = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_ticker_last",
			Help: "Last traded price",
		},
		[]string{"exchange", "symbol"},
	)

	// Poll metrics
	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pf_poll_duration_seconds",
			Help:    "Time to complete one poll cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"exchange"},
	)

	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pf_poll_errors_total",
			Help: "Total number of failed fetches during polling",
		},
		[]string{"exchange", "kind"},
	)

	// Redis metrics
	RedisPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pf_redis_publish_duration_seconds",
			Help:    "Time to publish message to Redis",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"channel"},
	)

	RedisPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pf_redis_publish_errors_total",
			Help: "Total number of Redis publish errors",
		},
		[]string{"channel"},
	)

	// REST API metrics
	RestFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pf_rest_fetch_duration_seconds",
			Help:    "Time to fetch data from exchange REST API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"exchange", "endpoint"},
	)

	RestFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pf_rest_fetch_errors_total",
			Help: "Total number of REST API fetch errors by error kind",
		},
		[]string{"exchange", "endpoint", "kind"},
	)

	RateLimiterWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pf_rate_limiter_wait_seconds",
			Help:    "Time spent waiting for the request rate limiter",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"exchange"},
	)

	// Instrument metrics
	InstrumentsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_instruments_loaded",
			Help: "Number of instruments loaded per exchange",
		},
		[]string{"exchange"},
	)

	InstrumentsPolled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_instruments_polled",
			Help: "Number of instruments polled per exchange",
		},
		[]string{"exchange"},
	)

	// Funding rate metrics
	FundingRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pf_funding_rate",
			Help: "Current predicted funding rate",
		},
		[]string{"exchange", "symbol"},
	)

	FundingRateUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pf_funding_rate_updates_total",
			Help: "Total number of funding rate updates",
		},
		[]string{"exchange"},
	)
)

// Timer is a helper for measuring operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram
func (t *Timer) ObserveDuration(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// RecordOrderbook records metrics for an orderbook snapshot
func RecordOrderbook(exchange, symbol string, bidDepth, askDepth int, bestBid, bestAsk float64) {
	OrderbookSnapshots.WithLabelValues(exchange, symbol).Inc()
	OrderbookDepth.WithLabelValues(exchange, symbol, "bid").Set(float64(bidDepth))
	OrderbookDepth.WithLabelValues(exchange, symbol, "ask").Set(float64(askDepth))

	if bestBid > 0 {
		OrderbookBestBid.WithLabelValues(exchange, symbol).Set(bestBid)
	}
	if bestAsk > 0 {
		OrderbookBestAsk.WithLabelValues(exchange, symbol).Set(bestAsk)
	}

	if bestBid > 0 && bestAsk > 0 {
		midPrice := (bestBid + bestAsk) / 2
		spreadBps := (bestAsk - bestBid) / midPrice * 10000
		OrderbookSpread.WithLabelValues(exchange, symbol).Set(spreadBps)
	}
}

// RecordTicker records the last price of a ticker
func RecordTicker(exchange, symbol string, last float64) {
	if last > 0 {
		TickerLast.WithLabelValues(exchange, symbol).Set(last)
	}
}

// RecordRestError records a classified REST failure
func RecordRestError(exchange, endpoint, kind string) {
	if kind == "" {
		kind = "Unknown"
	}
	RestFetchErrors.WithLabelValues(exchange, endpoint, kind).Inc()
}

// RecordPollError records a fetch that failed during a poll cycle
func RecordPollError(exchange, kind string) {
	if kind == "" {
		kind = "Unknown"
	}
	PollErrors.WithLabelValues(exchange, kind).Inc()
}

// RecordFundingRate records a funding rate update
func RecordFundingRate(exchange, symbol string, rate float64) {
	FundingRate.WithLabelValues(exchange, symbol).Set(rate)
	FundingRateUpdates.WithLabelValues(exchange).Inc()
}

// Server starts the Prometheus metrics HTTP server
type Server struct {
	addr   string
	server *http.Server
}

// NewServer creates a new metrics server
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the server's routes
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the metrics server
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("Starting metrics server")
	return s.server.ListenAndServe()
}

// Stop stops the metrics server gracefully
func (s *Server) Stop() error {
	return s.server.Close()
}
