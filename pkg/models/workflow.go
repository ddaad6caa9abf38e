package models

import (
	"time"
)

// WorkflowStatus is derived from Workflow.IsActive and never stored.
type WorkflowStatus string

const (
	WorkflowActive WorkflowStatus = "active"
	WorkflowDraft  WorkflowStatus = "draft"
)

// StatusFor maps the persisted active flag to its display status.
func StatusFor(isActive bool) WorkflowStatus {
	if isActive {
		return WorkflowActive
	}
	return WorkflowDraft
}

// TriggerType is how a workflow is started.
type TriggerType string

const (
	TriggerManual     TriggerType = "manual"
	TriggerSchedule   TriggerType = "schedule"
	TriggerWebhook    TriggerType = "webhook"
	TriggerEvent      TriggerType = "event"
	TriggerFileChange TriggerType = "file_change"
)

// Workflow is the persisted metadata of a designer workflow together with its
// node graph.
type Workflow struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name" validate:"required,max=200"`
	Description  string         `json:"description" db:"description"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	Status       WorkflowStatus `json:"status" db:"-"`
	TriggerType  TriggerType    `json:"trigger_type" db:"trigger_type" validate:"required,oneof=manual schedule webhook event file_change"`
	Schedule     *string        `json:"schedule,omitempty" db:"schedule"`
	RunCount     int            `json:"run_count" db:"run_count"`
	SuccessCount int            `json:"success_count" db:"success_count"`
	ErrorCount   int            `json:"error_count" db:"error_count"`
	Graph        WorkflowGraph  `json:"graph" db:"graph"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

func (w Workflow) RecordID() string { return w.ID }

// WithStatus returns the workflow with Status derived from IsActive.
func (w Workflow) WithStatus() Workflow {
	w.Status = StatusFor(w.IsActive)
	return w
}
