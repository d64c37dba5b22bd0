package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"safespace-chat/internal/crisis"
	"safespace-chat/internal/database"

	"github.com/redis/go-redis/v9"
)

// DefaultAlertChannel is the pub/sub channel crisis alerts are published on.
const DefaultAlertChannel = "chat:crisis:alerts"

type RedisService struct {
	client       *database.RedisClient
	alertChannel string
}

func NewRedisService(client *database.RedisClient, alertChannel string) *RedisService {
	if alertChannel == "" {
		alertChannel = DefaultAlertChannel
	}
	return &RedisService{
		client:       client,
		alertChannel: alertChannel,
	}
}

func (r *RedisService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// =============================================================================
// Crisis Alerts
// =============================================================================

// PublishCrisisAlert publishes alert as JSON for ops subscribers.
func (r *RedisService) PublishCrisisAlert(ctx context.Context, alert crisis.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal crisis alert: %w", err)
	}

	if err := r.client.GetClient().Publish(ctx, r.alertChannel, data).Err(); err != nil {
		slog.Error("Failed to publish crisis alert", "channel", r.alertChannel, "room", alert.Room, "error", err)
		return err
	}

	slog.Debug("Published crisis alert", "channel", r.alertChannel, "room", alert.Room)
	return nil
}

// AlertSink exposes PublishCrisisAlert as a crisis.AlertSink.
func (r *RedisService) AlertSink() crisis.AlertSink {
	return crisis.AlertSinkFunc(r.PublishCrisisAlert)
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit records one hit for key and reports whether it is still
// under limit within the sliding window.
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.GetClient().Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}
