package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conversa/internal/infrastructure/backplane/port"

	redis "github.com/redis/go-redis/v9"
)

// RedisBackplane implements the Backplane over Redis pub/sub, one Redis
// channel per group. All deliveries to local subscribers flow through the
// Redis round trip, publisher included, which keeps ordering identical for
// every member of a group. The engine still assumes one logical backplane;
// Redis is just the transport behind it.
type RedisBackplane struct {
	client *redis.Client
	pubsub *redis.PubSub
	log    *slog.Logger

	mu    sync.Mutex
	local map[string]map[string]port.Subscriber
}

// NewRedisBackplane connects to url, verifies connectivity and starts the
// dispatch loop. Close releases the subscription.
func NewRedisBackplane(ctx context.Context, url string, log *slog.Logger) (*RedisBackplane, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("backplane: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("backplane: ping: %w", err)
	}

	b := &RedisBackplane{
		client: client,
		pubsub: client.Subscribe(context.Background()),
		log:    log,
		local:  make(map[string]map[string]port.Subscriber),
	}
	go b.dispatch()
	return b, nil
}

var _ port.Backplane = (*RedisBackplane)(nil)

func (b *RedisBackplane) Join(ctx context.Context, group string, sub port.Subscriber) error {
	b.mu.Lock()
	set := b.local[group]
	first := set == nil
	if first {
		set = make(map[string]port.Subscriber)
		b.local[group] = set
	}
	set[sub.SubscriberID()] = sub
	b.mu.Unlock()

	if first {
		return b.pubsub.Subscribe(ctx, group)
	}
	return nil
}

func (b *RedisBackplane) Leave(ctx context.Context, group string, sub port.Subscriber) error {
	b.mu.Lock()
	set := b.local[group]
	delete(set, sub.SubscriberID())
	last := set != nil && len(set) == 0
	if last {
		delete(b.local, group)
	}
	b.mu.Unlock()

	if last {
		return b.pubsub.Unsubscribe(ctx, group)
	}
	return nil
}

func (b *RedisBackplane) Publish(ctx context.Context, group string, payload []byte) error {
	return b.client.Publish(ctx, group, payload).Err()
}

// Close tears down the subscription and the client.
func (b *RedisBackplane) Close() error {
	if err := b.pubsub.Close(); err != nil {
		return err
	}
	return b.client.Close()
}

// dispatch fans each Redis message out to the local subscribers of its
// channel. It exits when the pubsub connection is closed.
func (b *RedisBackplane) dispatch() {
	for msg := range b.pubsub.Channel() {
		b.mu.Lock()
		subs := make([]port.Subscriber, 0, len(b.local[msg.Channel]))
		for _, sub := range b.local[msg.Channel] {
			subs = append(subs, sub)
		}
		b.mu.Unlock()

		for _, sub := range subs {
			b.deliver(sub, []byte(msg.Payload))
		}
	}
	b.log.Debug("backplane dispatch loop stopped")
}

// deliver isolates one subscriber: a panic in its Deliver must not take
// down the dispatch loop shared by every group.
func (b *RedisBackplane) deliver(sub port.Subscriber, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber delivery panicked", "subscriber", sub.SubscriberID(), "panic", r)
		}
	}()
	sub.Deliver(payload)
}
