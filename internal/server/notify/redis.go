package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/redis/go-redis/v9"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisNotifier PUBLISHes JSON events on a pub/sub channel.
type RedisNotifier struct {
	client  redisPublisher
	channel string
	now     func() time.Time
}

func ConnectRedis(ctx context.Context, addr, channel string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisNotifier(client, channel), nil
}

func newRedisNotifier(client redisPublisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, now: time.Now}
}

func (n *RedisNotifier) Notify(ctx context.Context, to models.Contact, message string) error {
	body, err := encodeEvent(to, message, n.now())
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, body).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
