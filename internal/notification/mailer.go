package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"expensely-backend/internal/logger"
)

var reminderTemplate = template.Must(template.New("reminder").Parse(
	`<p>Hi there,</p>` +
		`<p><strong>{{.Sender}}</strong> has sent you a payment reminder for the group <strong>{{.Group}}</strong>.</p>` +
		`<p>Please check the Expensely app to view and settle your dues.</p>` +
		`<br/><p>Thank you,<br/>Expensely Team</p>`,
))

// ReminderEmail renders the payment reminder sent alongside the push.
func ReminderEmail(to, senderEmail, groupName string) (Email, error) {
	var body bytes.Buffer
	err := reminderTemplate.Execute(&body, struct{ Sender, Group string }{senderEmail, groupName})
	if err != nil {
		return Email{}, fmt.Errorf("render reminder email: %w", err)
	}
	return Email{
		To:      to,
		Subject: "Payment Reminder - " + groupName,
		HTML:    body.String(),
	}, nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct{}

// NewLogMailer creates a new LogMailer
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs email
func (m *LogMailer) Send(ctx context.Context, email Email) error {
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"to":      email.To,
		"subject": email.Subject,
	}).Info("email not sent, log provider configured")
	return nil
}
