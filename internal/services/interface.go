package services

import (
	"context"
	"encoding/json"
	"time"
)

// SyncPayload is the body posted to a model endpoint when its configuration
// is saved.
type SyncPayload struct {
	Model    json.RawMessage             `json:"model"`
	Datasets map[string][]map[string]any `json:"datasets"`
	SyncedAt time.Time                   `json:"synced_at"`
}

// WebhookClient delivers a sync payload to a model endpoint.
type WebhookClient interface {
	// Post sends payload to url, authenticating with apiKey when it is set.
	Post(ctx context.Context, url, apiKey string, payload SyncPayload) error
}
