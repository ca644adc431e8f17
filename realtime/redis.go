// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/danielhkuo/quickly-meet/models"
)

// DefaultChannel is the Redis pub/sub channel vote changes travel on.
const DefaultChannel = "quickly-meet:vote-changes"

// RedisFeed shares vote changes between server instances over Redis
// pub/sub. Every subscriber receives every change and filters locally.
type RedisFeed struct {
	client  *redis.Client
	channel string
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisFeed(client *redis.Client, channel string) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisFeed{client: client, channel: channel}
}

func (f *RedisFeed) Publish(ctx context.Context, change models.VoteChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode vote change: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish vote change: %w", err)
	}
	return nil
}

// Subscribe opens a dedicated pub/sub connection for this subscriber.
// fn is called from the receiving goroutine.
func (f *RedisFeed) Subscribe(slotIDs []string, fn func(models.VoteChange)) (cancel func()) {
	sub := newSubscription(slotIDs, fn)
	pubsub := f.client.Subscribe(context.Background(), f.channel)

	go func() {
		for msg := range pubsub.Channel() {
			var change models.VoteChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				slog.Warn("dropping malformed vote change", "error", err, "channel", msg.Channel)
				continue
			}
			if sub.wants(change) {
				sub.fn(change)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				slog.Warn("failed to close redis subscription", "error", err)
			}
		})
	}
}
