package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/octobees/leads-extractor/internal/scraper"
)

const webhookTimeout = 15 * time.Second

// RunReport is the payload delivered to the leads webhook after every run.
type RunReport struct {
	RunID    string               `json:"run_id"`
	Keyword  string               `json:"keyword"`
	Location string               `json:"location"`
	State    scraper.SessionState `json:"state"`
	Leads    []scraper.Lead       `json:"leads"`
	Meta     scraper.Meta         `json:"meta"`
	Error    string               `json:"error,omitempty"`
}

// Notifier forwards run reports to a downstream system.
type Notifier interface {
	Notify(ctx context.Context, report RunReport, requestID string) error
}

// WebhookNotifier posts run reports as JSON to a fixed URL.
type WebhookNotifier struct {
	client *http.Client
	url    string
}

// NewWebhookNotifier builds a notifier. When client is nil an ID-token client
// is tried first so Cloud Run targets can be called without extra setup.
func NewWebhookNotifier(client *http.Client, webhookURL string) (*WebhookNotifier, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook url must not be empty")
	}
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), webhookURL)
		if err != nil {
			client = &http.Client{Timeout: webhookTimeout}
		} else {
			idc.Timeout = webhookTimeout
			client = idc
		}
	}
	return &WebhookNotifier{client: client, url: webhookURL}, nil
}

// Notify posts the report and fails on any non-2xx answer.
func (n *WebhookNotifier) Notify(ctx context.Context, report RunReport, requestID string) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook error: status %d: %s", resp.StatusCode, extractWebhookError(resp.Body))
	}
	return nil
}

func extractWebhookError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "webhook returned an error"
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}

var _ Notifier = (*WebhookNotifier)(nil)
