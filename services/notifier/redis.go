package notifier

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"uzdeals/dealwatcher/internal/watch"
	errs "uzdeals/dealwatcher/pkg/errors"
)

// RedisStream publishes alerts to a Redis stream so downstream
// consumers (dashboards, exporters) can tail the alert feed.
type RedisStream struct {
	client    *redis.Client
	stream    string
	maxLength int64
}

// NewRedisStream creates a Redis stream notifier
func NewRedisStream(addr string, db int, stream string, maxLength int64) *RedisStream {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisStream{
		client:    client,
		stream:    stream,
		maxLength: maxLength,
	}
}

// Notify appends the alert as a JSON entry, trimming the stream to its
// configured maximum length.
func (r *RedisStream) Notify(ctx context.Context, alert watch.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return errs.NewNotification("redis", err)
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLength,
		Approx: true,
		Values: map[string]interface{}{
			"alert": payload,
		},
	}).Err()
	if err != nil {
		return errs.NewNotification("redis", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStream) Close() error {
	return r.client.Close()
}
