// Package services holds the outbound integrations of the console.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/metrics"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// DefaultDatasetLimit caps the items sent per dataset collection.
const DefaultDatasetLimit = 100

var tracer = otel.Tracer("automation-console/backend/internal/services")

// SyncService pushes model configuration and dataset samples to the endpoint
// of a model after it is saved.
type SyncService struct {
	store  repository.Collections
	client WebhookClient
	logger *logging.Logger
	limit  int
	now    func() time.Time
}

// NewSyncService creates a new SyncService. limit <= 0 uses
// DefaultDatasetLimit.
func NewSyncService(store repository.Collections, client WebhookClient, logger *logging.Logger, limit int) *SyncService {
	if limit <= 0 {
		limit = DefaultDatasetLimit
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SyncService{store: store, client: client, logger: logger, limit: limit, now: time.Now}
}

// SyncChatbot posts the chatbot's configuration when it has an endpoint.
// It matches the records.OnSaved hook signature.
func (s *SyncService) SyncChatbot(ctx context.Context, bot models.Chatbot, r notify.Reporter) {
	s.sync(ctx, bot.ID, bot.EndpointURL, bot.APIKey, bot.Redacted(), r)
}

// SyncAIModel posts the model's configuration when it has an endpoint.
// Catalog AI models carry no credentials, so the request is sent without an
// Authorization header; keyed models are chatbots and go through SyncChatbot.
func (s *SyncService) SyncAIModel(ctx context.Context, m models.AIModel, r notify.Reporter) {
	url := ""
	if m.EndpointURL != nil {
		url = *m.EndpointURL
	}
	s.sync(ctx, m.ID, url, "", m, r)
}

// sync never fails the caller: problems become one warning.
func (s *SyncService) sync(ctx context.Context, id, url, apiKey string, model any, r notify.Reporter) {
	if url == "" {
		return
	}
	if r == nil {
		r = notify.Discard
	}

	ctx, span := tracer.Start(ctx, "webhook.sync")
	defer span.End()
	span.SetAttributes(attribute.String("model.id", id))

	err := s.push(ctx, url, apiKey, model)
	metrics.ObserveWebhookSync(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("endpoint sync failed", "model", id, "error", err)
		r.Report(notify.LevelWarning, fmt.Sprintf("Model saved, but syncing with its endpoint failed: %v", err))
		return
	}
	s.logger.Info("endpoint sync delivered", "model", id)
	r.Report(notify.LevelInfo, "Model configuration synced with its endpoint")
}

func (s *SyncService) push(ctx context.Context, url, apiKey string, model any) error {
	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	datasets, err := s.Datasets(ctx)
	if err != nil {
		return err
	}
	return s.client.Post(ctx, url, apiKey, SyncPayload{
		Model:    raw,
		Datasets: datasets,
		SyncedAt: s.now().UTC(),
	})
}

// Datasets samples every dataset collection, one collection at a time.
func (s *SyncService) Datasets(ctx context.Context) (map[string][]map[string]any, error) {
	out := make(map[string][]map[string]any, len(models.DatasetCollections))
	for _, c := range models.DatasetCollections {
		items, err := s.store.SampleItems(ctx, c, s.limit)
		if err != nil {
			return nil, fmt.Errorf("read dataset %s: %w", c, err)
		}
		if items == nil {
			items = []map[string]any{}
		}
		out[string(c)] = items
	}
	return out, nil
}
