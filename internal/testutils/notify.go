package testutils

import (
	"context"
	"sync"

	"expensely-backend/internal/notification"
)

// RecordingPublisher records every published message. Topics listed in
// Fail are rejected with the mapped error after being recorded.
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []notification.Message
	Fail     map[string]error
}

// NewRecordingPublisher creates an empty RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{Fail: make(map[string]error)}
}

// Publish implements notification.Publisher
func (p *RecordingPublisher) Publish(_ context.Context, msg notification.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.Fail[msg.Topic]
}

// Messages returns a copy of everything published so far
func (p *RecordingPublisher) Messages() []notification.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.Message(nil), p.messages...)
}

// To returns the messages published to topic with the given event type
func (p *RecordingPublisher) To(topic string, event notification.EventType) []notification.Message {
	var out []notification.Message
	for _, m := range p.Messages() {
		if m.Topic == topic && m.Data["type"] == string(event) {
			out = append(out, m)
		}
	}
	return out
}

// Reset forgets recorded messages
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

// RecordingMailer records every sent email. Err, when set, is returned
// after recording.
type RecordingMailer struct {
	mu     sync.Mutex
	emails []notification.Email
	Err    error
}

// Send implements notification.Mailer
func (m *RecordingMailer) Send(_ context.Context, email notification.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, email)
	return m.Err
}

// Emails returns a copy of everything sent so far
func (m *RecordingMailer) Emails() []notification.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Email(nil), m.emails...)
}
