// Package publisher fans Best Bets signals out to downstream consumers.
package publisher

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/signals"
)

// SignalField is the stream entry field holding the signal JSON.
const SignalField = "signal"

// SignalPublisher publishes generated signals.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, signal *signals.BestBetsSignal) error
	Close() error
}

// StreamPublisher publishes signals to Redis Streams.
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamPublisher creates a stream publisher writing to stream and its
// per-category children.
func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// PublishSignal adds the signal to the global stream and, when the market has
// a category, to <stream>.<category>.
func (p *StreamPublisher) PublishSignal(ctx context.Context, signal *signals.BestBetsSignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	err = p.xadd(ctx, p.stream, payload, "global")
	if err != nil {
		return err
	}

	if category := CategoryKey(signal.Category); category != "" {
		err = p.xadd(ctx, p.stream+"."+category, payload, "category")
		if err != nil {
			return err
		}
	}

	p.logger.Debug("signal-published",
		zap.String("signal-id", signal.ID),
		zap.String("market-id", signal.MarketID),
		zap.Float64("confidence", signal.ConfidenceScore))

	return nil
}

func (p *StreamPublisher) xadd(ctx context.Context, stream string, payload []byte, streamType string) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			SignalField: string(payload),
		},
	}).Result()
	if err != nil {
		SignalsPublishedTotal.WithLabelValues(streamType, "error").Inc()
		return fmt.Errorf("publish to stream %s: %w", stream, err)
	}

	SignalsPublishedTotal.WithLabelValues(streamType, "ok").Inc()
	return nil
}

// Ping checks the Redis connection. Used by the readiness probe.
func (p *StreamPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (p *StreamPublisher) Close() error {
	p.logger.Info("closing-stream-publisher")
	return p.client.Close()
}

// CategoryKey normalizes a market category into a stream suffix.
func CategoryKey(category string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "-")
}

// NopPublisher discards signals.
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher creates a publisher that only logs.
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

// PublishSignal drops the signal.
func (n *NopPublisher) PublishSignal(ctx context.Context, signal *signals.BestBetsSignal) error {
	n.logger.Debug("signal-discarded", zap.String("signal-id", signal.ID))
	return nil
}

// Close is a no-op.
func (n *NopPublisher) Close() error {
	return nil
}
