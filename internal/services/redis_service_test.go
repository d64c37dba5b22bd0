package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"safespace-chat/internal/crisis"
	"safespace-chat/internal/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisService skips the test when no local Redis is reachable.
func newTestRedisService(t *testing.T) *RedisService {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	channel := "test:crisis:" + uuid.New().String()
	return NewRedisService(database.NewRedisClientFrom(client, log), channel)
}

func TestRedisService_CheckRateLimit(t *testing.T) {
	svc := newTestRedisService(t)
	ctx := context.Background()
	key := "test:ratelimit:" + uuid.New().String()
	t.Cleanup(func() { svc.client.GetClient().Del(context.Background(), key) })

	for i := 0; i < 3; i++ {
		allowed, err := svc.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, err := svc.CheckRateLimit(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisService_PublishCrisisAlert(t *testing.T) {
	svc := newTestRedisService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sub := svc.client.GetClient().Subscribe(ctx, svc.alertChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	alert := crisis.Alert{Room: "general", Content: "I want to end it all", MessageID: "m1", Keyword: true, Timestamp: time.Now().UTC()}
	require.NoError(t, svc.AlertSink().Publish(ctx, alert))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got crisis.Alert
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "general", got.Room)
	assert.Equal(t, "m1", got.MessageID)
	assert.True(t, got.Keyword)
}

func TestNewRedisService_DefaultChannel(t *testing.T) {
	svc := NewRedisService(nil, "")
	assert.Equal(t, DefaultAlertChannel, svc.alertChannel)
}
