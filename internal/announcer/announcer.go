package announcer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const webhookAnnouncePath = "/announcements"

type Option func(*webhookAnnouncer)

type Service interface {
	Do(ctx context.Context, action, account, detail string) error
}

func WithWebhookURL(webhookURL string) Option {
	return func(a *webhookAnnouncer) {
		a.baseURL = strings.TrimSpace(webhookURL)
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *webhookAnnouncer) {
		a.client = client
	}
}

type webhookAnnouncer struct {
	baseURL string
	client  *http.Client
}

func New(opts ...Option) *webhookAnnouncer {
	announcer := &webhookAnnouncer{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(announcer)
	}
	return announcer
}

// Do posts one announcement. Without a webhook URL it does nothing.
func (a *webhookAnnouncer) Do(ctx context.Context, action, account, detail string) error {
	if a.baseURL == "" {
		return nil
	}
	baseURL := strings.TrimRight(a.baseURL, "/")
	payload, err := json.Marshal(map[string]string{
		"message": fmt.Sprintf("%s: account %q %s", action, account, detail),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+webhookAnnouncePath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("announcement webhook returned status %s", resp.Status)
	}
	return nil
}
