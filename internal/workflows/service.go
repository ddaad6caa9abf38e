// Package workflows manages workflow metadata and the node graph stored with
// each workflow.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"automation-console/backend/internal/catalog"
	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// ErrComponentNotFound is returned when a node is bound to a component that
// the catalog does not list.
var ErrComponentNotFound = errors.New("component not found")

// Draft holds the fields a user supplies when creating or editing a
// workflow. Everything else is owned by the service.
type Draft struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	TriggerType models.TriggerType `json:"trigger_type"`
	Schedule    *string            `json:"schedule,omitempty"`
}

// Service manages workflows.
type Service struct {
	store    repository.Records[models.Workflow]
	catalog  *catalog.Catalog
	logger   *logging.Logger
	reporter notify.Reporter
}

// NewService creates a new Service.
func NewService(store repository.Records[models.Workflow], cat *catalog.Catalog, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{store: store, catalog: cat, logger: logger, reporter: notify.Discard}
}

// With returns a copy of the service that reports to r.
func (s *Service) With(r notify.Reporter) *Service {
	c := *s
	c.reporter = r
	return &c
}

// List returns every workflow with its derived status.
func (s *Service) List(ctx context.Context) ([]models.Workflow, error) {
	items, err := s.store.Select(ctx, nil)
	if err != nil {
		s.logger.Error("failed to list workflows", "error", err)
		s.reporter.Report(notify.LevelError, "Failed to load workflows")
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	for i := range items {
		items[i] = items[i].WithStatus()
	}
	return items, nil
}

// Get returns one workflow with its derived status.
func (s *Service) Get(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	out := wf.WithStatus()
	return &out, nil
}

// Create stores a new workflow. Workflows always start inactive, as drafts,
// with an empty graph.
func (s *Service) Create(ctx context.Context, d Draft) (*models.Workflow, error) {
	wf := models.Workflow{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		TriggerType: d.TriggerType,
		Schedule:    d.Schedule,
		Graph:       models.WorkflowGraph{Nodes: []models.WorkflowNode{}, Edges: []models.WorkflowEdge{}},
	}
	if err := s.validate(wf); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, &wf); err != nil {
		s.logger.Error("failed to create workflow", "error", err)
		s.reporter.Report(notify.LevelError, "Failed to create workflow")
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	s.logger.Info("workflow created", "id", wf.ID, "trigger", wf.TriggerType)
	s.reporter.Report(notify.LevelSuccess, "Workflow created")
	out := wf.WithStatus()
	return &out, nil
}

// Update changes the metadata of a workflow. The active flag, the counters
// and the graph are left as stored.
func (s *Service) Update(ctx context.Context, id string, d Draft) (*models.Workflow, error) {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	wf.Name = strings.TrimSpace(d.Name)
	wf.Description = d.Description
	wf.TriggerType = d.TriggerType
	wf.Schedule = d.Schedule
	if err := s.validate(*wf); err != nil {
		return nil, err
	}
	return s.save(ctx, wf, "Workflow updated")
}

// SetActive toggles the persisted active flag. The returned workflow is
// re-read from the store so its derived status matches what a later fetch
// reports.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*models.Workflow, error) {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	wf.IsActive = active
	msg := "Workflow deactivated"
	if active {
		msg = "Workflow activated"
	}
	if _, err := s.save(ctx, wf, msg); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a workflow once confirm agrees.
func (s *Service) Delete(ctx context.Context, id string, confirm records.Confirm) error {
	if confirm == nil || !confirm() {
		return records.ErrNotConfirmed
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete workflow", "id", id, "error", err)
		s.reporter.Report(notify.LevelError, "Failed to delete workflow")
		return fmt.Errorf("delete workflow %s: %w", id, err)
	}
	s.reporter.Report(notify.LevelSuccess, "Workflow deleted")
	return nil
}

// Execute records a manual run request. Workflows are not interpreted; the
// request is only logged.
func (s *Service) Execute(ctx context.Context, id string) error {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get workflow %s: %w", id, err)
	}
	s.logger.Info("workflow execution requested",
		"id", wf.ID,
		"name", wf.Name,
		"nodes", len(wf.Graph.Nodes),
		"edges", len(wf.Graph.Edges),
	)
	s.reporter.Report(notify.LevelInfo, fmt.Sprintf("Execution of %q requested", wf.Name))
	return nil
}

func (s *Service) validate(wf models.Workflow) error {
	err := records.Validate(wf)
	var verrs models.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return err
	}

	switch {
	case wf.TriggerType == models.TriggerSchedule && (wf.Schedule == nil || strings.TrimSpace(*wf.Schedule) == ""):
		verrs.Add("schedule", "is required for schedule triggers")
	case wf.TriggerType == models.TriggerSchedule:
		if _, perr := cron.ParseStandard(*wf.Schedule); perr != nil {
			verrs.Add("schedule", "invalid cron expression: %v", perr)
		}
	case wf.Schedule != nil && *wf.Schedule != "":
		verrs.Add("schedule", "only applies to schedule triggers")
	}

	if err := verrs.OrNil(); err != nil {
		s.reporter.Report(notify.LevelError, fmt.Sprintf("Invalid workflow: %v", err))
		return err
	}
	return nil
}

func (s *Service) save(ctx context.Context, wf *models.Workflow, success string) (*models.Workflow, error) {
	if err := s.store.Update(ctx, wf); err != nil {
		s.logger.Error("failed to update workflow", "id", wf.ID, "error", err)
		s.reporter.Report(notify.LevelError, "Failed to update workflow")
		return nil, fmt.Errorf("update workflow %s: %w", wf.ID, err)
	}
	s.reporter.Report(notify.LevelSuccess, success)
	out := wf.WithStatus()
	return &out, nil
}
