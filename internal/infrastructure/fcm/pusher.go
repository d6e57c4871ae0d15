// Package fcm adapts Firebase Cloud Messaging to the delivery gateway's
// Pusher interface via the legacy HTTP API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultEndpoint = "https://fcm.googleapis.com/fcm/send"

// Pusher sends push messages through FCM.
type Pusher struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

// NewPusher creates an FCM pusher. endpoint is overridable for tests;
// empty uses the real FCM URL.
func NewPusher(serverKey, endpoint string, timeout time.Duration) *Pusher {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Pusher{
		serverKey: serverKey,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: timeout},
	}
}

type message struct {
	To           string       `json:"to"`
	Notification notification `json:"notification"`
	Data         data         `json:"data"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Sound string `json:"sound"`
}

type data struct {
	Type string `json:"type"`
}

// Push sends one message to a device token. A non-2xx response is an error.
func (p *Pusher) Push(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(message{
		To: token,
		Notification: notification{
			Title: title,
			Body:  body,
			Icon:  "ic_notification",
			Sound: "default",
		},
		Data: data{Type: "contract_renewal"},
	})
	if err != nil {
		return fmt.Errorf("failed to encode fcm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build fcm request: %w", err)
	}
	req.Header.Set("Authorization", "key="+p.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fcm request failed with status %d", resp.StatusCode)
	}
	return nil
}
