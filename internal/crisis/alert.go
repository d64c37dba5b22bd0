package crisis

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AlertPreviewLength bounds the message text carried by an alert.
const AlertPreviewLength = 50

// Alert is the ops-side notice raised when a message triggers crisis
// handling. It never reaches other room members.
type Alert struct {
	Room         string    `json:"room"`
	Content      string    `json:"content"`
	SenderID     string    `json:"senderId"`
	ConnectionID string    `json:"connectionId"`
	MessageID    string    `json:"messageId"`
	Keyword      bool      `json:"keywordMatch"`
	Timestamp    time.Time `json:"timestamp"`
}

// AlertSink delivers alerts to an ops channel.
type AlertSink interface {
	Publish(ctx context.Context, alert Alert) error
}

// AlertSinkFunc adapts a function to AlertSink.
type AlertSinkFunc func(ctx context.Context, alert Alert) error

func (f AlertSinkFunc) Publish(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// LogSink writes alerts to a structured logger.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Publish(_ context.Context, alert Alert) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Warn("CRISIS ALERT",
		"room", alert.Room,
		"content", alert.Content,
		"messageID", alert.MessageID,
		"keywordMatch", alert.Keyword)
	return nil
}

// MultiSink publishes to every sink. A failing sink does not stop the
// others; all errors are joined.
type MultiSink []AlertSink

func (m MultiSink) Publish(ctx context.Context, alert Alert) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
