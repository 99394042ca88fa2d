package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "expensely-backend/internal/errors"
)

// ResendEndpoint is the Resend send-email API.
const ResendEndpoint = "https://api.resend.com/emails"

// ResendMailer sends email through the Resend HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewResendMailer creates a mailer authenticated with apiKey
func NewResendMailer(apiKey, from string, client *http.Client) *ResendMailer {
	if client == nil {
		client = &http.Client{}
	}
	return &ResendMailer{apiKey: apiKey, from: from, endpoint: ResendEndpoint, client: client}
}

// WithEndpoint points the mailer at another API base, used in tests
func (m *ResendMailer) WithEndpoint(endpoint string) *ResendMailer {
	m.endpoint = endpoint
	return m
}

// Send posts email to Resend
func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    fmt.Sprintf("Expensely <%s>", m.from),
		"to":      []string{email.To},
		"subject": email.Subject,
		"html":    email.HTML,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrEmailRejected, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
