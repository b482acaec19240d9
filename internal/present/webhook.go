package present

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	displayv1 "github.com/jdholdren/krisinfo/api/display/v1"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
)

const webhookMaxRetries = 3

type WebhookConfig struct {
	URL string
	// Bounds a whole delivery, retries included. Keep it under the display
	// interval so a dead endpoint can't back up ticks.
	Timeout time.Duration
}

// Webhook POSTs every display tick and poll outcome as JSON.
type Webhook struct {
	url     string
	timeout time.Duration
	client  *http.Client
	backoff func() retry.Backoff
	now     func() time.Time
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Webhook{
		url:     cfg.URL,
		timeout: timeout,
		client:  &http.Client{},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(webhookMaxRetries, retry.NewExponential(100*time.Millisecond))
		},
		now: time.Now,
	}
}

func (w *Webhook) Present(ctx context.Context, d krisinfo.Display) error {
	display := toDisplay(d, w.now())
	return w.post(ctx, displayv1.Event{Type: displayv1.EventDisplay, Display: &display})
}

func (w *Webhook) Notify(ctx context.Context, n krisinfo.Notification) error {
	notification := toNotification(n)
	return w.post(ctx, displayv1.Event{Type: displayv1.EventNotification, Notification: &notification})
}

func (w *Webhook) post(ctx context.Context, event displayv1.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling webhook event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	return retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("error building webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("error sending webhook: %w", err))
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("webhook returned %s", resp.Status))
		case resp.StatusCode >= 300:
			return fmt.Errorf("webhook returned %s", resp.Status)
		}

		return nil
	})
}
