package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix prefixes every pub/sub channel name.
const DefaultChannelPrefix = "threadline:events:"

// RedisPublisher publishes JSON envelopes on Valkey pub/sub channels named
// <prefix><kind>.
type RedisPublisher struct {
	client redis.Cmdable
	prefix string
}

// NewRedisPublisher creates a publisher. An empty prefix uses
// DefaultChannelPrefix.
func NewRedisPublisher(client redis.Cmdable, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the channel an event kind is published on.
func (p *RedisPublisher) Channel(kind Kind) string {
	return p.prefix + string(kind)
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.Channel(ev.Kind), data).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	slog.Debug("event published", "kind", ev.Kind, "id", ev.ID, "receivers", receivers)
	return nil
}

// LogPublisher writes events to the structured log. It stands in for a real
// consumer in development.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher logging through logger, or the default
// logger when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, ev Event) error {
	p.logger.InfoContext(ctx, "event",
		"kind", ev.Kind,
		"id", ev.ID,
		"payload", string(ev.Payload),
	)
	return nil
}

// Fanout delivers every event to all of its publishers. One failing
// publisher does not stop the others; their errors are joined.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
