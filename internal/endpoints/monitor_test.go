package endpoints

import (
	"context"
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

func statusServer(t *testing.T, code int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code >= 300 && code < 400 {
			w.Header().Set("Location", "/elsewhere")
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func addEndpoint(t *testing.T, store *repository.Store, id, url string) {
	t.Helper()
	ep := models.Endpoint{ID: id, Name: id, URL: url, Status: models.EndpointUnknown}
	require.NoError(t, store.Endpoints.Insert(context.Background(), &ep))
}

func TestRefreshAll_Stats(t *testing.T) {
	store := repository.NewMemoryStore()
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	addEndpoint(t, store, "a-ok", statusServer(t, http.StatusOK))
	addEndpoint(t, store, "b-redirect", statusServer(t, http.StatusFound))
	addEndpoint(t, store, "c-broken", statusServer(t, http.StatusServiceUnavailable))
	addEndpoint(t, store, "d-down", closedURL)

	mon := NewMonitor(store.Endpoints, 2*time.Second, nil)
	rec := notify.NewRecorder(nil)
	items, stats, err := mon.RefreshAll(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, Stats{Online: 2, Offline: 1, Error: 1, Total: 4}, stats)
	assert.Equal(t, stats.Total, stats.Online+stats.Offline+stats.Error)
	require.Len(t, items, 4)

	stored, snap, err := mon.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats, snap)
	byID := map[string]models.Endpoint{}
	for _, ep := range stored {
		byID[ep.ID] = ep
	}
	assert.Equal(t, models.EndpointOnline, byID["a-ok"].Status)
	assert.Equal(t, models.EndpointOnline, byID["b-redirect"].Status)
	assert.Equal(t, models.EndpointError, byID["c-broken"].Status)
	assert.Equal(t, models.EndpointOffline, byID["d-down"].Status)
	assert.NotNil(t, byID["a-ok"].LastCheckedAt)
	assert.NotNil(t, byID["a-ok"].ResponseTimeMs)

	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.LevelSuccess, rec.Notices()[0].Level)
}

func TestRefreshAll_MarksCheckingFirst(t *testing.T) {
	store := repository.NewMemoryStore()
	arrived := make(chan struct{})
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()
	addEndpoint(t, store, "slow", slow.URL)

	mon := NewMonitor(store.Endpoints, 5*time.Second, nil)
	done := make(chan error, 1)
	go func() {
		_, _, err := mon.RefreshAll(context.Background(), nil)
		done <- err
	}()

	<-arrived
	ep, err := store.Endpoints.Get(context.Background(), "slow")
	require.NoError(t, err)
	assert.Equal(t, models.EndpointChecking, ep.Status)

	close(release)
	require.NoError(t, <-done)
	ep, err = store.Endpoints.Get(context.Background(), "slow")
	require.NoError(t, err)
	assert.Equal(t, models.EndpointOnline, ep.Status)
}

func TestRefreshAll_Empty(t *testing.T) {
	mon := NewMonitor(repository.NewMemoryStore().Endpoints, time.Second, nil)
	items, stats, err := mon.RefreshAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, stats.Total)
}
