package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "expensely-backend/internal/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	fcmScope    = "https://www.googleapis.com/auth/firebase.messaging"
	fcmEndpoint = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
)

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Topic        string            `json:"topic"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

// FCMPublisher sends topic messages through the FCM HTTP v1 API.
type FCMPublisher struct {
	client   *http.Client
	endpoint string
}

// NewFCMPublisher authenticates with a service account key and targets its project
func NewFCMPublisher(ctx context.Context, credentialsJSON []byte) (*FCMPublisher, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, fcmScope)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("invalid FCM credentials: %v", err))
	}
	if creds.ProjectID == "" {
		return nil, apperrors.NewConfigurationError("FCM credentials carry no project_id")
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	return NewFCMPublisherWithClient(client, fmt.Sprintf(fcmEndpoint, creds.ProjectID)), nil
}

// NewFCMPublisherWithClient sends through an already authorized client to endpoint
func NewFCMPublisherWithClient(client *http.Client, endpoint string) *FCMPublisher {
	return &FCMPublisher{client: client, endpoint: endpoint}
}

// Publish sends msg to its topic
func (p *FCMPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Topic:        msg.Topic,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}})
	if err != nil {
		return fmt.Errorf("encode fcm message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrPublishRejected, resp.StatusCode, bytes.TrimSpace(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
