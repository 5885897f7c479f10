package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// EventBroker fans notification events out to live connections.
type EventBroker interface {
	Publish(ctx context.Context, event NotificationEvent) error
	Close() error
}

// LocalBroker delivers straight to the in-process hub.
type LocalBroker struct {
	hub *EventHub
}

func NewLocalBroker(hub *EventHub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, event NotificationEvent) error {
	b.hub.Publish(event)
	return nil
}

func (b *LocalBroker) Close() error { return nil }

// RedisBroker publishes events on a Redis channel. Every instance subscribes
// to the channel and forwards what it receives to its own hub, so a user
// connected to any instance gets the event.
type RedisBroker struct {
	client  *redis.Client
	channel string
	hub     *EventHub
	pubsub  *redis.PubSub
	wg      sync.WaitGroup
}

func NewRedisBroker(ctx context.Context, cfg *config.RedisConfig, channel string, hub *EventHub) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		client.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	b := &RedisBroker{client: client, channel: channel, hub: hub, pubsub: pubsub}
	b.wg.Add(1)
	go b.forward()
	return b, nil
}

func (b *RedisBroker) forward() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		event, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			logger.Warn().Err(err).Str("channel", msg.Channel).Msg("[EventBroker] dropping malformed event")
			continue
		}
		b.hub.Publish(event)
	}
}

func (b *RedisBroker) Publish(ctx context.Context, event NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroker) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	if cerr := b.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func decodeEvent(payload []byte) (NotificationEvent, error) {
	var event NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return NotificationEvent{}, err
	}
	if event.UserID == 0 {
		return NotificationEvent{}, fmt.Errorf("event without user id")
	}
	return event, nil
}

// InitEventBroker picks the Redis broker when Redis is enabled and reachable,
// otherwise the local one.
func InitEventBroker(ctx context.Context, cfg *config.Config, hub *EventHub) EventBroker {
	if !cfg.Redis.Enabled {
		logger.Infof("[EventBroker] Local broker initialized (Redis disabled)")
		return NewLocalBroker(hub)
	}
	broker, err := NewRedisBroker(ctx, &cfg.Redis, cfg.Notification.EventChannel, hub)
	if err != nil {
		logger.Warnf("[EventBroker] Redis unavailable, falling back to local broker: %v", err)
		return NewLocalBroker(hub)
	}
	logger.Infof("[EventBroker] Redis broker on channel %s", cfg.Notification.EventChannel)
	return broker
}
