package notification

import (
	"context"

	"expensely-backend/internal/logger"
)

// LogPublisher writes push notifications to the log instead of sending them.
type LogPublisher struct{}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish logs msg
func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"topic": msg.Topic,
		"title": msg.Title,
		"type":  msg.Data["type"],
	}).Info(msg.Body)
	return nil
}
