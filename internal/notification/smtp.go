package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig configures an SMTPMailer
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends email through an authenticated SMTP relay.
type SMTPMailer struct {
	host string
	from string
	opts []mail.Option
}

// NewSMTPMailer creates a mailer for cfg
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return &SMTPMailer{host: cfg.Host, from: cfg.From, opts: opts}
}

// Send delivers email over a fresh SMTP session
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat("Expensely", m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(email.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)

	client, err := mail.NewClient(m.host, m.opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send smtp message: %w", err)
	}
	return nil
}
