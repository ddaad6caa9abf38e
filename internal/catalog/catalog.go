// Package catalog maps logical component types to the collections that back
// them.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// ComponentType is a logical kind of component a workflow node can refer to.
type ComponentType string

const (
	CNC          ComponentType = "cnc"
	Laser        ComponentType = "laser"
	Printer3D    ComponentType = "printer3d"
	RoboticArm   ComponentType = "robotic_arm"
	Conveyor     ComponentType = "conveyor"
	VisionSystem ComponentType = "vision_system"
	Chatbot      ComponentType = "chatbot"
	AIModel      ComponentType = "ai_model"
	Integration  ComponentType = "integration"
)

// Descriptor says where the components of a type live.
type Descriptor struct {
	Type       ComponentType     `json:"type"`
	Label      string            `json:"label"`
	Icon       string            `json:"icon"`
	Collection models.Collection `json:"collection"`
	// StaticFilter is always applied when listing.
	StaticFilter repository.Filter `json:"static_filter,omitempty"`
	// SubFilterColumn, when set, is the column an optional caller-supplied
	// sub-filter restricts.
	SubFilterColumn string `json:"sub_filter_column,omitempty"`
}

// Registry is the closed table of component types.
var Registry = map[ComponentType]Descriptor{
	CNC:          {Type: CNC, Label: "CNC Machine", Icon: "cog", Collection: models.CollectionCNCMachines},
	Laser:        {Type: Laser, Label: "Laser Machine", Icon: "zap", Collection: models.CollectionLaserMachines},
	Printer3D:    {Type: Printer3D, Label: "3D Printer", Icon: "printer", Collection: models.CollectionPrinters3D},
	RoboticArm:   {Type: RoboticArm, Label: "Robotic Arm", Icon: "bot", Collection: models.CollectionRoboticArms},
	Conveyor:     {Type: Conveyor, Label: "Conveyor Belt", Icon: "arrow-right-left", Collection: models.CollectionConveyors},
	VisionSystem: {Type: VisionSystem, Label: "Vision System", Icon: "eye", Collection: models.CollectionHardware, StaticFilter: repository.Filter{"type": "vision_system"}},
	Chatbot:      {Type: Chatbot, Label: "Chatbot", Icon: "message-square", Collection: models.CollectionChatbots},
	AIModel:      {Type: AIModel, Label: "AI Model", Icon: "brain", Collection: models.CollectionAIModels, SubFilterColumn: "type"},
	Integration:  {Type: Integration, Label: "Integration", Icon: "plug", Collection: models.CollectionIntegrations},
}

// Lookup returns the descriptor of a component type key.
func Lookup(key string) (Descriptor, bool) {
	d, ok := Registry[ComponentType(key)]
	return d, ok
}

// Descriptors returns every descriptor sorted by type.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(Registry))
	for _, d := range Registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Catalog lists the components of a type from the record store.
type Catalog struct {
	store    repository.Collections
	reporter notify.Reporter
}

// New creates a Catalog.
func New(store repository.Collections, reporter notify.Reporter) *Catalog {
	if reporter == nil {
		reporter = notify.Discard
	}
	return &Catalog{store: store, reporter: reporter}
}

// List returns the components of the type named by key. Unknown keys yield an
// empty list. subFilter only applies to types declaring a SubFilterColumn.
// A store failure is reported once and also yields an empty list.
func (c *Catalog) List(ctx context.Context, key string, subFilter string) []models.Component {
	return c.list(ctx, key, subFilter, c.reporter)
}

// ListWith is List reporting to r instead of the catalog's reporter.
func (c *Catalog) ListWith(ctx context.Context, key, subFilter string, r notify.Reporter) []models.Component {
	return c.list(ctx, key, subFilter, r)
}

func (c *Catalog) list(ctx context.Context, key, subFilter string, r notify.Reporter) []models.Component {
	desc, ok := Lookup(key)
	if !ok {
		return []models.Component{}
	}

	filter := repository.Filter{}
	for k, v := range desc.StaticFilter {
		filter[k] = v
	}
	if subFilter != "" && desc.SubFilterColumn != "" {
		filter[desc.SubFilterColumn] = subFilter
	}

	comps, err := c.store.SelectComponents(ctx, desc.Collection, filter)
	if err != nil {
		r.Report(notify.LevelError, fmt.Sprintf("Failed to load %s components: %v", desc.Label, err))
		return []models.Component{}
	}
	if comps == nil {
		comps = []models.Component{}
	}
	return comps
}

// Find returns the component of the given type with the given id.
func (c *Catalog) Find(ctx context.Context, key, id string, r notify.Reporter) (models.Component, bool) {
	for _, comp := range c.list(ctx, key, "", r) {
		if comp.ID == id {
			return comp, true
		}
	}
	return models.Component{}, false
}
