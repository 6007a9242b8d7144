package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mongsom/shop/pkg/events"
	"github.com/mongsom/shop/pkg/logging"
)

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// publish is best effort: the rows are committed already, a lost event is only logged.
func publish(ctx context.Context, p events.Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
