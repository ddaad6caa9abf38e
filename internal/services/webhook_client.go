package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPWebhookClient is an HTTP implementation of the WebhookClient interface.
type HTTPWebhookClient struct {
	client *http.Client
}

// NewHTTPWebhookClient creates a new HTTPWebhookClient. A zero timeout means
// no client-side timeout.
func NewHTTPWebhookClient(timeout time.Duration) *HTTPWebhookClient {
	return &HTTPWebhookClient{client: &http.Client{Timeout: timeout}}
}

// Post sends the payload as JSON. Any non-2xx response is an error.
func (c *HTTPWebhookClient) Post(ctx context.Context, url, apiKey string, payload SyncPayload) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook rejected sync: status code %d", resp.StatusCode)
	}
	return nil
}
