package config

import (
	"fmt"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Exchange ExchangeConfig
	Poller   PollerConfig
	Redis    RedisConfig
	Metrics  MetricsConfig
	Backend  BackendConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ExchangeConfig struct {
	RESTURL        string        `envconfig:"PF_REST_URL" default:"https://futures-api.poloniex.com"`
	APIKey         string        `envconfig:"PF_API_KEY"`
	APISecret      string        `envconfig:"PF_API_SECRET"`
	APIPassphrase  string        `envconfig:"PF_API_PASSPHRASE"`
	RequestTimeout time.Duration `envconfig:"PF_REQUEST_TIMEOUT" default:"10s"`
}

type PollerConfig struct {
	Symbols        []string      `envconfig:"PF_SYMBOLS" default:"BTC/USDT:USDT,ETH/USDT:USDT"`
	Interval       time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	OrderbookLevel int           `envconfig:"ORDERBOOK_LEVEL" default:"2"`
}

type RedisConfig struct {
	Host string `envconfig:"REDIS_HOST" default:"localhost"`
	Port string `envconfig:"REDIS_PORT" default:"6379"`
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type MetricsConfig struct {
	Port string `envconfig:"METRICS_PORT" default:"9090"`
}

// Addr returns the listen address
func (c MetricsConfig) Addr() string {
	return ":" + c.Port
}

// BackendConfig points at the service holding user API credentials. An empty
// URL disables the lookup.
type BackendConfig struct {
	URL           string `envconfig:"BACKEND_API_URL"`
	ServiceSecret string `envconfig:"SERVICE_SECRET"`
}

// Load reads the .env file if present, then the environment
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Poller.Interval)
	}
	if c.Poller.OrderbookLevel != 2 && c.Poller.OrderbookLevel != 3 {
		return fmt.Errorf("ORDERBOOK_LEVEL must be 2 or 3, got %d", c.Poller.OrderbookLevel)
	}
	if c.Exchange.RequestTimeout <= 0 {
		return fmt.Errorf("PF_REQUEST_TIMEOUT must be positive, got %s", c.Exchange.RequestTimeout)
	}
	return nil
}
