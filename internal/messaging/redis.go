package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkglog "github.com/wirelive/multihost-service/pkg/log"
)

// redisClient receives peer frames from a Redis Pub/Sub channel. The
// signaling backend publishes one JSON frame per message; the payload is
// handed to observers untouched.
type redisClient struct {
	client    *redis.Client
	channel   string
	observers *observerSet
}

func newRedisClient(cfg RedisConfig) (*redisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisClient{
		client:    client,
		channel:   cfg.Channel,
		observers: newObserverSet(),
	}, nil
}

func (r *redisClient) AddPeerObserver(handler func([]byte)) string {
	return r.observers.add(handler)
}

func (r *redisClient) RemovePeerObserver(id string) {
	r.observers.remove(id)
}

// Run subscribes to the channel and dispatches payloads to observers until
// ctx is done. Reconnects on receive errors.
func (r *redisClient) Run(ctx context.Context) error {
	l := pkglog.L()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := r.runSubscription(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("peer pubsub subscription error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return ctx.Err()
		}
	}
}

func (r *redisClient) runSubscription(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for subscription to be active
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.observers.dispatch([]byte(msg.Payload))
		}
	}
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
