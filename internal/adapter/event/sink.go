// Package event publishes workflow events to their observers.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "credential-approval/internal/domain/event"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	_ domain.Sink = (*RedisSink)(nil)
	_ domain.Sink = (*LogSink)(nil)
	_ domain.Sink = Fanout(nil)
)

// RedisSink publishes each event as JSON on a pub/sub channel.
type RedisSink struct {
	rdb     redis.Cmdable
	channel string
}

func NewRedisSink(rdb redis.Cmdable, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Publish(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Action, s.channel, err)
	}
	return nil
}

// LogSink writes each event as a structured log line.
type LogSink struct{ log *zap.Logger }

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Publish(_ context.Context, ev domain.Event) error {
	s.log.Info("workflow event",
		zap.String("event_id", ev.ID),
		zap.String("category", ev.Category),
		zap.String("action", ev.Action),
		zap.String("request_id", ev.RequestID),
		zap.String("actor", ev.Actor),
		zap.String("scope", ev.Scope),
		zap.String("status", ev.Status),
		zap.Time("at", ev.At))
	return nil
}

// Fanout hands every event to all sinks and joins their errors.
type Fanout []domain.Sink

func (f Fanout) Publish(ctx context.Context, ev domain.Event) error {
	var errs error
	for _, s := range f {
		if s == nil {
			continue
		}
		errs = errors.Join(errs, s.Publish(ctx, ev))
	}
	return errs
}
