// Package dashboard computes the stat cards of the console home pages. Every
// figure is one count query against the record store.
package dashboard

import (
	"context"
	"fmt"

	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// Ratio is a part of a whole.
type Ratio struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// Summary is the content of the overview dashboard.
type Summary struct {
	Workflows       Ratio            `json:"workflows"`
	Chatbots        Ratio            `json:"chatbots"`
	Machines        map[string]Ratio `json:"machines"`
	EndpointsOnline int              `json:"endpoints_online"`
	Endpoints       int              `json:"endpoints"`
	Runs            int              `json:"runs"`
	Successes       int              `json:"successes"`
	SuccessRate     float64          `json:"success_rate"`
}

// machineKinds maps a dashboard key to its collection and the status value
// that counts as active.
var machineKinds = []struct {
	key        string
	collection models.Collection
	active     string
}{
	{"cnc", models.CollectionCNCMachines, "running"},
	{"laser", models.CollectionLaserMachines, "running"},
	{"printer3d", models.CollectionPrinters3D, "running"},
	{"robotic_arm", models.CollectionRoboticArms, "running"},
	{"conveyor", models.CollectionConveyors, string(models.ConveyorRunning)},
}

// Service reads dashboard figures.
type Service struct {
	store     repository.Collections
	workflows repository.Records[models.Workflow]
	logger    *logging.Logger
	reporter  notify.Reporter
}

// NewService creates a new Service.
func NewService(store repository.Collections, workflows repository.Records[models.Workflow], logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{store: store, workflows: workflows, logger: logger, reporter: notify.Discard}
}

// With returns a copy of the service that reports to r.
func (s *Service) With(r notify.Reporter) *Service {
	c := *s
	c.reporter = r
	return &c
}

// Summary gathers every figure of the overview dashboard. A failed read is
// reported once.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	sum, err := s.summary(ctx)
	if err != nil {
		s.logger.Error("failed to load dashboard", "error", err)
		s.reporter.Report(notify.LevelError, "Failed to load dashboard")
		return nil, err
	}
	return sum, nil
}

func (s *Service) summary(ctx context.Context) (*Summary, error) {
	var out Summary
	var err error

	if out.Workflows, err = s.ratio(ctx, models.CollectionWorkflows, repository.Filter{"is_active": true}); err != nil {
		return nil, err
	}
	if out.Chatbots, err = s.ratio(ctx, models.CollectionChatbots, repository.Filter{"status": "active"}); err != nil {
		return nil, err
	}

	out.Machines = make(map[string]Ratio, len(machineKinds))
	for _, k := range machineKinds {
		r, err := s.ratio(ctx, k.collection, repository.Filter{"status": k.active})
		if err != nil {
			return nil, err
		}
		out.Machines[k.key] = r
	}

	if out.Endpoints, err = s.count(ctx, models.CollectionEndpoints, nil); err != nil {
		return nil, err
	}
	if out.EndpointsOnline, err = s.count(ctx, models.CollectionEndpoints, repository.Filter{"status": string(models.EndpointOnline)}); err != nil {
		return nil, err
	}

	// run counters are stored per workflow; this is the one read that is not
	// a count
	wfs, err := s.workflows.Select(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("read workflow counters: %w", err)
	}
	for _, wf := range wfs {
		out.Runs += wf.RunCount
		out.Successes += wf.SuccessCount
	}
	out.SuccessRate = SuccessRate(out.Successes, out.Runs)
	return &out, nil
}

// SuccessRate is successes/runs, or 0 when nothing ran.
func SuccessRate(successes, runs int) float64 {
	if runs == 0 {
		return 0
	}
	return float64(successes) / float64(runs)
}

func (s *Service) ratio(ctx context.Context, c models.Collection, active repository.Filter) (Ratio, error) {
	total, err := s.count(ctx, c, nil)
	if err != nil {
		return Ratio{}, err
	}
	n, err := s.count(ctx, c, active)
	if err != nil {
		return Ratio{}, err
	}
	return Ratio{Total: total, Active: n}, nil
}

func (s *Service) count(ctx context.Context, c models.Collection, filter repository.Filter) (int, error) {
	n, err := s.store.Count(ctx, c, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}
