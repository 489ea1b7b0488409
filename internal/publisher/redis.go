package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crossspread-pfutures/internal/connector"
	"crossspread-pfutures/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Stream retention
const (
	OrderbookStreamLen = 1000
	TickerStreamLen    = 1000
	FundingStreamLen   = 10000

	// LatestTTL bounds how long a snapshot stays readable without updates
	LatestTTL = 5 * time.Minute
)

// StreamKey is the stream and Pub/Sub channel of one data kind on one market:
// {kind}:{exchange}:{symbol}
func StreamKey(kind string, exchange connector.ExchangeID, symbol string) string {
	return fmt.Sprintf("%s:%s:%s", kind, exchange, symbol)
}

// LatestKey holds the most recent snapshot of a stream
func LatestKey(streamKey string) string {
	return streamKey + ":latest"
}

// RedisPublisher publishes market data to Redis Streams
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisPublisher{client: client}, nil
}

// NewRedisPublisherWithClient wraps an existing client without pinging it
func NewRedisPublisherWithClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// PublishOrderbook publishes an orderbook snapshot to its stream, its Pub/Sub
// channel and its latest key
func (p *RedisPublisher) PublishOrderbook(ctx context.Context, exchange connector.ExchangeID, ob *connector.OrderBook) error {
	return p.publish(ctx, StreamKey("orderbook", exchange, ob.Symbol), OrderbookStreamLen, ob)
}

// PublishTicker publishes a ticker
func (p *RedisPublisher) PublishTicker(ctx context.Context, exchange connector.ExchangeID, ticker *connector.Ticker) error {
	return p.publish(ctx, StreamKey("ticker", exchange, ticker.Symbol), TickerStreamLen, ticker)
}

// PublishFundingRate publishes a funding rate
func (p *RedisPublisher) PublishFundingRate(ctx context.Context, exchange connector.ExchangeID, rate *connector.FundingRate) error {
	return p.publish(ctx, StreamKey("funding", exchange, rate.Symbol), FundingStreamLen, rate)
}

func (p *RedisPublisher) publish(ctx context.Context, streamKey string, maxLen int64, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streamKey, err)
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RedisPublishDuration, streamKey)

	// Stream for history and replay
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err(); err != nil {
		metrics.RedisPublishErrors.WithLabelValues(streamKey).Inc()
		return fmt.Errorf("xadd %s: %w", streamKey, err)
	}

	if err := p.client.Set(ctx, LatestKey(streamKey), data, LatestTTL).Err(); err != nil {
		metrics.RedisPublishErrors.WithLabelValues(streamKey).Inc()
		return fmt.Errorf("set %s: %w", LatestKey(streamKey), err)
	}

	// Pub/Sub is best-effort
	if err := p.client.Publish(ctx, streamKey, string(data)).Err(); err != nil {
		metrics.RedisPublishErrors.WithLabelValues(streamKey).Inc()
		log.Warn().Err(err).Str("channel", streamKey).Msg("Failed to publish to Pub/Sub")
	}

	log.Debug().Str("stream", streamKey).Int("bytes", len(data)).Msg("Published")
	return nil
}
