// Package redisrelay forwards bus events to Redis pub/sub so that other
// processes can react to them.
package redisrelay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/app/system/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelPrefix is prepended to the event name to form the Redis channel.
const ChannelPrefix = "orghub:events:"

// Channel returns the Redis channel for an event name.
func Channel(name string) string {
	return ChannelPrefix + name
}

// Relay publishes events to Redis.
type Relay struct {
	client  redis.UniversalClient
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func New(client redis.UniversalClient, logger *zap.Logger, m *metrics.Metrics) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{client: client, log: logger, metrics: m}
}

// Attach subscribes the relay to the named events on bus.
func (r *Relay) Attach(bus *events.Bus, names ...string) {
	for _, name := range names {
		bus.Subscribe(name, r.Forward)
	}
}

// Forward publishes e as JSON on its channel. It is an events.Handler.
func (r *Relay) Forward(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		r.metrics.EventRelayed(e.EventName(), "error")
		return fmt.Errorf("encoding %s: %w", e.EventName(), err)
	}
	if err := r.client.Publish(ctx, Channel(e.EventName()), payload).Err(); err != nil {
		r.metrics.EventRelayed(e.EventName(), "error")
		return fmt.Errorf("publishing %s to redis: %w", e.EventName(), err)
	}
	r.metrics.EventRelayed(e.EventName(), "ok")
	r.log.Debug("event relayed", zap.String("event", e.EventName()))
	return nil
}
