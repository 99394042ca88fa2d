package notification

import (
	"context"
	"time"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/notification_mocks.go -package=mocks

// Message is one push notification addressed to a topic.
type Message struct {
	Topic string            `json:"topic"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Email is one transactional email.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Publisher delivers push notifications to a topic
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Mailer delivers transactional email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Throttle grants at most one action per key within a window
type Throttle interface {
	// Allow reports whether the action for key may proceed and, if so,
	// reserves the key for window.
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	// Release drops a reservation made by Allow.
	Release(ctx context.Context, key string) error
}
