package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/models"
)

const publishTimeout = 5 * time.Second

// redisPayload is the message published to Redis for cross-instance delivery.
type redisPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisPubSub implements Broker on Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis-backed broker.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishStatus implements Broker.
func (r *RedisPubSub) PublishStatus(ctx context.Context, lectureID uuid.UUID, view models.LectureStatusView) error {
	ev, err := statusEvent(view)
	if err != nil {
		return err
	}
	body, err := json.Marshal(redisPayload{Event: ev.Event, Data: ev.Data, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, Channel(lectureID), body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe implements Broker. The subscription lives until cancel is called or ctx ends.
func (r *RedisPubSub) Subscribe(ctx context.Context, lectureID uuid.UUID, handler func(Event)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(ctx, Channel(lectureID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					r.logger.Debug("drop malformed lecture event", zap.Error(err))
					continue
				}
				handler(Event{Event: p.Event, Data: p.Data})
			}
		}
	}()
	return cancelCtx, nil
}
