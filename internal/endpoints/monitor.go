// Package endpoints checks the reachability of the monitored model and
// integration endpoints.
package endpoints

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/metrics"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// Stats aggregates the outcome of a refresh. Online+Offline+Error == Total.
type Stats struct {
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Error   int `json:"error"`
	Total   int `json:"total"`
}

// Add counts one endpoint status.
func (s *Stats) Add(status models.EndpointStatus) {
	switch status {
	case models.EndpointOnline:
		s.Online++
	case models.EndpointOffline:
		s.Offline++
	case models.EndpointError:
		s.Error++
	default:
		return
	}
	s.Total++
}

// Monitor checks endpoints and stores the result on each endpoint row.
type Monitor struct {
	store  repository.Records[models.Endpoint]
	client *http.Client
	logger *logging.Logger
	now    func() time.Time
}

// NewMonitor creates a Monitor whose checks time out after timeout.
func NewMonitor(store repository.Records[models.Endpoint], timeout time.Duration, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &Monitor{
		store:  store,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot returns every endpoint with the stats of their stored status.
func (m *Monitor) Snapshot(ctx context.Context) ([]models.Endpoint, Stats, error) {
	items, err := m.store.Select(ctx, nil)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list endpoints: %w", err)
	}
	var stats Stats
	for _, e := range items {
		stats.Add(e.Status)
	}
	return items, stats, nil
}

// RefreshAll marks every endpoint as checking, then checks them all
// concurrently. It fails if any status update fails to store; the result of
// a failed check is a status, not an error.
func (m *Monitor) RefreshAll(ctx context.Context, r notify.Reporter) ([]models.Endpoint, Stats, error) {
	if r == nil {
		r = notify.Discard
	}
	items, err := m.store.Select(ctx, nil)
	if err != nil {
		r.Report(notify.LevelError, "Failed to load endpoints")
		return nil, Stats{}, fmt.Errorf("list endpoints: %w", err)
	}

	for i := range items {
		items[i].Status = models.EndpointChecking
		if err := m.store.Update(ctx, &items[i]); err != nil {
			r.Report(notify.LevelError, "Failed to refresh endpoints")
			return nil, Stats{}, fmt.Errorf("mark endpoint %s checking: %w", items[i].ID, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			ep := &items[i]
			status, elapsed := m.Check(gctx, ep.URL)
			checkedAt := m.now().UTC()
			ms := elapsed.Milliseconds()
			ep.Status = status
			ep.LastCheckedAt = &checkedAt
			ep.ResponseTimeMs = &ms
			metrics.ObserveEndpointCheck(string(status))
			if err := m.store.Update(gctx, ep); err != nil {
				return fmt.Errorf("store status of endpoint %s: %w", ep.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Error("endpoint refresh failed", "error", err)
		r.Report(notify.LevelError, "Failed to refresh endpoints")
		return nil, Stats{}, err
	}

	var stats Stats
	for _, ep := range items {
		stats.Add(ep.Status)
	}
	m.logger.Info("endpoints refreshed", "online", stats.Online, "offline", stats.Offline, "error", stats.Error)
	r.Report(notify.LevelSuccess, fmt.Sprintf("%d of %d endpoints online", stats.Online, stats.Total))
	return items, stats, nil
}

// Check probes url with a GET request. 2xx and 3xx responses are online,
// any other response is an error and a transport failure is offline.
func (m *Monitor) Check(ctx context.Context, url string) (models.EndpointStatus, time.Duration) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.EndpointError, time.Since(start)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return models.EndpointOffline, time.Since(start)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return models.EndpointOnline, time.Since(start)
	}
	return models.EndpointError, time.Since(start)
}
