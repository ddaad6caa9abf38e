package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

type captured struct {
	auth    string
	payload SyncPayload
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, chan captured) {
	t.Helper()
	got := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		c.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&c.payload)
		got <- c
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func seedLocations(t *testing.T, store *repository.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		loc := models.Location{ID: fmt.Sprintf("loc-%03d", i), Name: fmt.Sprintf("Stop %d", i), Type: models.DefaultLocationType}
		require.NoError(t, store.Locations.Insert(context.Background(), &loc))
	}
}

func TestSyncChatbot_PostsConfigAndDatasets(t *testing.T) {
	store := repository.NewMemoryStore()
	seedLocations(t, store, 5)
	srv, got := newCaptureServer(t, http.StatusAccepted)

	svc := NewSyncService(store, NewHTTPWebhookClient(time.Second), nil, 3)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	rec := notify.NewRecorder(nil)
	bot := models.Chatbot{ID: "c-1", Name: "Helpdesk", APIKey: "sk-123", EndpointURL: srv.URL}
	svc.SyncChatbot(context.Background(), bot, rec)

	c := <-got
	assert.Equal(t, "Bearer sk-123", c.auth)
	assert.True(t, fixed.Equal(c.payload.SyncedAt))
	assert.Len(t, c.payload.Datasets["locations"], 3)
	assert.Empty(t, c.payload.Datasets["cnc_machines"])
	assert.Len(t, c.payload.Datasets, len(models.DatasetCollections))

	var model map[string]any
	require.NoError(t, json.Unmarshal(c.payload.Model, &model))
	assert.Equal(t, "Helpdesk", model["name"])
	assert.NotContains(t, model, "api_key")

	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.LevelInfo, rec.Notices()[0].Level)
}

func TestSyncChatbot_NoKeyNoAuthHeader(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK)
	svc := NewSyncService(repository.NewMemoryStore(), NewHTTPWebhookClient(time.Second), nil, 0)

	svc.SyncChatbot(context.Background(), models.Chatbot{ID: "c-2", EndpointURL: srv.URL}, notify.Discard)

	c := <-got
	assert.Empty(t, c.auth)
}

func TestSyncAIModel_SendsConfigWithoutAuth(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusOK)
	svc := NewSyncService(repository.NewMemoryStore(), NewHTTPWebhookClient(time.Second), nil, 0)

	url := srv.URL
	svc.SyncAIModel(context.Background(), models.AIModel{ID: "m-3", Name: "Vision", Type: "vision", EndpointURL: &url}, notify.Discard)

	c := <-got
	assert.Empty(t, c.auth)
	var model map[string]any
	require.NoError(t, json.Unmarshal(c.payload.Model, &model))
	assert.Equal(t, "Vision", model["name"])
}

func TestSync_FailureIsOneWarning(t *testing.T) {
	srv, got := newCaptureServer(t, http.StatusInternalServerError)
	svc := NewSyncService(repository.NewMemoryStore(), NewHTTPWebhookClient(time.Second), nil, 0)

	rec := notify.NewRecorder(nil)
	url := srv.URL
	svc.SyncAIModel(context.Background(), models.AIModel{ID: "m-1", EndpointURL: &url}, rec)
	<-got

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelWarning, notices[0].Level)
}

func TestSync_SkipsWithoutEndpoint(t *testing.T) {
	rec := notify.NewRecorder(nil)
	svc := NewSyncService(repository.NewMemoryStore(), NewHTTPWebhookClient(time.Second), nil, 0)

	svc.SyncChatbot(context.Background(), models.Chatbot{ID: "c-3"}, rec)
	svc.SyncAIModel(context.Background(), models.AIModel{ID: "m-2"}, rec)
	assert.Empty(t, rec.Notices())
}
