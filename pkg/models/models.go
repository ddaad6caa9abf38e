// Package models defines the records persisted by the automation console
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Collection names a table in the record store.
type Collection string

const (
	CollectionWorkflows           Collection = "workflows"
	CollectionFunctions           Collection = "functions"
	CollectionFunctionInputs      Collection = "function_inputs"
	CollectionFunctionOutputs     Collection = "function_outputs"
	CollectionFunctionLogicSteps  Collection = "function_logic_steps"
	CollectionFunctionErrorHandle Collection = "function_error_handling"
	CollectionChatbots            Collection = "chatbots"
	CollectionChatbotRules        Collection = "chatbot_rules"
	CollectionCNCMachines         Collection = "cnc_machines"
	CollectionLaserMachines       Collection = "laser_machines"
	CollectionPrinters3D          Collection = "printers_3d"
	CollectionRoboticArms         Collection = "robotic_arms"
	CollectionConveyors           Collection = "conveyors"
	CollectionHardware            Collection = "hardware"
	CollectionAIModels            Collection = "ai_models"
	CollectionIntegrations        Collection = "integrations"
	CollectionEndpoints           Collection = "endpoints"
	CollectionLocations           Collection = "locations"
	CollectionClients             Collection = "clients"
	CollectionProjects            Collection = "projects"
	CollectionPayments            Collection = "payments"
	CollectionEmployees           Collection = "employees"
)

// DatasetCollections are the collections shipped to a model endpoint during a
// webhook sync. They are scanned in this order.
var DatasetCollections = []Collection{
	CollectionLocations,
	CollectionCNCMachines,
	CollectionLaserMachines,
	CollectionPrinters3D,
	CollectionRoboticArms,
	CollectionConveyors,
	CollectionHardware,
}

// Record is implemented by every persisted row.
type Record interface {
	RecordID() string
}

// Component is the normalized shape returned by the component catalog.
type Component struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Model        *string `json:"model,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty"`
	Status       *string `json:"status,omitempty"`
	IPAddress    *string `json:"ip_address,omitempty"`
	EndpointURL  *string `json:"endpoint_url,omitempty"`
}

// Componentizer is implemented by records that can be offered in the
// component selection dialog.
type Componentizer interface {
	Record
	Component() Component
}

// Machine is a CNC machine, laser machine, 3D printer or robotic arm. The four
// kinds share one shape and live in separate collections.
type Machine struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name" validate:"required,max=120"`
	Model        *string         `json:"model,omitempty" db:"model"`
	Manufacturer *string         `json:"manufacturer,omitempty" db:"manufacturer"`
	Status       string          `json:"status" db:"status" validate:"required,oneof=active idle running maintenance offline error"`
	IPAddress    *string         `json:"ip_address,omitempty" db:"ip_address" validate:"omitempty,ip"`
	Location     *string         `json:"location,omitempty" db:"location"`
	Specs        json.RawMessage `json:"specs,omitempty" db:"specs"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

func (m Machine) RecordID() string { return m.ID }

func (m Machine) Component() Component {
	status := m.Status
	return Component{
		ID:           m.ID,
		Name:         m.Name,
		Model:        m.Model,
		Manufacturer: m.Manufacturer,
		Status:       &status,
		IPAddress:    m.IPAddress,
	}
}

// ConveyorDirection is the running direction of a belt.
type ConveyorDirection string

const (
	DirectionForward  ConveyorDirection = "forward"
	DirectionBackward ConveyorDirection = "backward"
	DirectionStopped  ConveyorDirection = "stopped"
)

// ConveyorStatus is the operational state of a belt.
type ConveyorStatus string

const (
	ConveyorRunning     ConveyorStatus = "running"
	ConveyorIdle        ConveyorStatus = "idle"
	ConveyorMaintenance ConveyorStatus = "maintenance"
	ConveyorError       ConveyorStatus = "error"
)

// Conveyor is a conveyor belt.
type Conveyor struct {
	ID        string            `json:"id" db:"id"`
	Name      string            `json:"name" db:"name" validate:"required,max=120"`
	Speed     float64           `json:"speed" db:"speed" validate:"min=0,max=100"`
	Direction ConveyorDirection `json:"direction" db:"direction" validate:"required,oneof=forward backward stopped"`
	Status    ConveyorStatus    `json:"status" db:"status" validate:"required,oneof=running idle maintenance error"`
	LengthM   float64           `json:"length_m" db:"length_m" validate:"min=0"`
	IPAddress *string           `json:"ip_address,omitempty" db:"ip_address" validate:"omitempty,ip"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

func (c Conveyor) RecordID() string { return c.ID }

func (c Conveyor) Component() Component {
	status := string(c.Status)
	return Component{ID: c.ID, Name: c.Name, Status: &status, IPAddress: c.IPAddress}
}

// HardwareDevice is a row of the generic hardware collection. Vision systems
// are hardware rows with Type = "vision_system".
type HardwareDevice struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name" validate:"required,max=120"`
	Type         string    `json:"type" db:"type" validate:"required"`
	Model        *string   `json:"model,omitempty" db:"model"`
	Manufacturer *string   `json:"manufacturer,omitempty" db:"manufacturer"`
	Status       string    `json:"status" db:"status" validate:"required"`
	IPAddress    *string   `json:"ip_address,omitempty" db:"ip_address" validate:"omitempty,ip"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (h HardwareDevice) RecordID() string { return h.ID }

func (h HardwareDevice) Component() Component {
	status := h.Status
	return Component{
		ID:           h.ID,
		Name:         h.Name,
		Model:        h.Model,
		Manufacturer: h.Manufacturer,
		Status:       &status,
		IPAddress:    h.IPAddress,
	}
}

// AIModel is a row of the ai_models catalog.
type AIModel struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required"`
	Type        string    `json:"type" db:"type" validate:"required"`
	Provider    *string   `json:"provider,omitempty" db:"provider"`
	EndpointURL *string   `json:"endpoint_url,omitempty" db:"endpoint_url" validate:"omitempty,url"`
	Status      string    `json:"status" db:"status" validate:"required,oneof=active inactive"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (m AIModel) RecordID() string { return m.ID }

func (m AIModel) Component() Component {
	status := m.Status
	return Component{ID: m.ID, Name: m.Name, Model: m.Provider, Status: &status, EndpointURL: m.EndpointURL}
}

// Integration is an external system the workflows can talk to.
type Integration struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required"`
	Type        string    `json:"type" db:"type" validate:"required"`
	EndpointURL *string   `json:"endpoint_url,omitempty" db:"endpoint_url" validate:"omitempty,url"`
	Status      string    `json:"status" db:"status" validate:"required,oneof=active inactive"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (i Integration) RecordID() string { return i.ID }

func (i Integration) Component() Component {
	status := i.Status
	return Component{ID: i.ID, Name: i.Name, Status: &status, EndpointURL: i.EndpointURL}
}

// EndpointStatus is the last observed reachability of an endpoint.
type EndpointStatus string

const (
	EndpointUnknown  EndpointStatus = "unknown"
	EndpointChecking EndpointStatus = "checking"
	EndpointOnline   EndpointStatus = "online"
	EndpointOffline  EndpointStatus = "offline"
	EndpointError    EndpointStatus = "error"
)

// Endpoint is a monitored model or integration endpoint.
type Endpoint struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name" validate:"required"`
	URL            string         `json:"url" db:"url" validate:"required,url"`
	Status         EndpointStatus `json:"status" db:"status"`
	LastCheckedAt  *time.Time     `json:"last_checked_at,omitempty" db:"last_checked_at"`
	ResponseTimeMs *int64         `json:"response_time_ms,omitempty" db:"response_time_ms"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

func (e Endpoint) RecordID() string { return e.ID }

// DefaultLocationType is applied to imported locations without a type.
const DefaultLocationType = "stop"

// Location is a point in the locations dataset.
type Location struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"`
	Latitude  float64   `json:"latitude" db:"latitude" validate:"min=-90,max=90"`
	Longitude float64   `json:"longitude" db:"longitude" validate:"min=-180,max=180"`
	Address   string    `json:"address" db:"address"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (l Location) RecordID() string { return l.ID }

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"trace_id,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned when a record is rejected before reaching the
// store.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns nil when no errors were collected.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
