package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"automation-console/backend/pkg/models"
)

// Store bundles the typed client of every collection and implements the
// untyped Collections dispatch over them.
type Store struct {
	Workflows             Records[models.Workflow]
	Functions             Records[models.FunctionDefinition]
	FunctionInputs        Records[models.FunctionInput]
	FunctionOutputs       Records[models.FunctionOutput]
	FunctionSteps         Records[models.FunctionLogicStep]
	FunctionErrorHandling Records[models.FunctionErrorHandling]
	Chatbots              Records[models.Chatbot]
	ChatbotRules          Records[models.ChatbotRule]
	CNCMachines           Records[models.Machine]
	LaserMachines         Records[models.Machine]
	Printers3D            Records[models.Machine]
	RoboticArms           Records[models.Machine]
	Conveyors             Records[models.Conveyor]
	Hardware              Records[models.HardwareDevice]
	AIModels              Records[models.AIModel]
	Integrations          Records[models.Integration]
	Endpoints             Records[models.Endpoint]
	Locations             Records[models.Location]
	Clients               Records[models.Client]
	Projects              Records[models.Project]
	Payments              Records[models.Payment]
	Employees             Records[models.Employee]

	components map[models.Collection]func(context.Context, Filter) ([]models.Component, error)
	counters   map[models.Collection]func(context.Context, Filter) (int, error)
	samplers   map[models.Collection]func(context.Context, int) ([]map[string]any, error)
	ping       func(context.Context) error
}

// backend selects the table implementation; a nil pool means memory.
type backend struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store over a PostgreSQL pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	s := newStore(backend{pool: pool})
	s.ping = pool.Ping
	return s
}

// NewMemoryStore creates an empty in-process Store.
func NewMemoryStore() *Store {
	s := newStore(backend{})
	s.ping = func(context.Context) error { return nil }
	return s
}

func newStore(b backend) *Store {
	s := &Store{
		components: make(map[models.Collection]func(context.Context, Filter) ([]models.Component, error)),
		counters:   make(map[models.Collection]func(context.Context, Filter) (int, error)),
		samplers:   make(map[models.Collection]func(context.Context, int) ([]map[string]any, error)),
	}

	s.Workflows = register(s, open[models.Workflow](b, models.CollectionWorkflows, "created_at"), models.CollectionWorkflows)
	s.Functions = register(s, open[models.FunctionDefinition](b, models.CollectionFunctions, "created_at"), models.CollectionFunctions)
	s.FunctionInputs = register(s, open[models.FunctionInput](b, models.CollectionFunctionInputs, "position"), models.CollectionFunctionInputs)
	s.FunctionOutputs = register(s, open[models.FunctionOutput](b, models.CollectionFunctionOutputs, "created_at"), models.CollectionFunctionOutputs)
	s.FunctionSteps = register(s, open[models.FunctionLogicStep](b, models.CollectionFunctionLogicSteps, "position"), models.CollectionFunctionLogicSteps)
	s.FunctionErrorHandling = register(s, open[models.FunctionErrorHandling](b, models.CollectionFunctionErrorHandle, "created_at"), models.CollectionFunctionErrorHandle)
	s.ChatbotRules = register(s, open[models.ChatbotRule](b, models.CollectionChatbotRules, "priority"), models.CollectionChatbotRules)
	s.Endpoints = register(s, open[models.Endpoint](b, models.CollectionEndpoints, "name"), models.CollectionEndpoints)
	s.Locations = register(s, open[models.Location](b, models.CollectionLocations, "name"), models.CollectionLocations)
	s.Clients = register(s, open[models.Client](b, models.CollectionClients, "name"), models.CollectionClients)
	s.Projects = register(s, open[models.Project](b, models.CollectionProjects, "name"), models.CollectionProjects)
	s.Payments = register(s, open[models.Payment](b, models.CollectionPayments, "created_at"), models.CollectionPayments)
	s.Employees = register(s, open[models.Employee](b, models.CollectionEmployees, "name"), models.CollectionEmployees)

	s.Chatbots = registerComponents(s, open[models.Chatbot](b, models.CollectionChatbots, "name"), models.CollectionChatbots)
	s.CNCMachines = registerComponents(s, open[models.Machine](b, models.CollectionCNCMachines, "name"), models.CollectionCNCMachines)
	s.LaserMachines = registerComponents(s, open[models.Machine](b, models.CollectionLaserMachines, "name"), models.CollectionLaserMachines)
	s.Printers3D = registerComponents(s, open[models.Machine](b, models.CollectionPrinters3D, "name"), models.CollectionPrinters3D)
	s.RoboticArms = registerComponents(s, open[models.Machine](b, models.CollectionRoboticArms, "name"), models.CollectionRoboticArms)
	s.Conveyors = registerComponents(s, open[models.Conveyor](b, models.CollectionConveyors, "name"), models.CollectionConveyors)
	s.Hardware = registerComponents(s, open[models.HardwareDevice](b, models.CollectionHardware, "name"), models.CollectionHardware)
	s.AIModels = registerComponents(s, open[models.AIModel](b, models.CollectionAIModels, "name"), models.CollectionAIModels)
	s.Integrations = registerComponents(s, open[models.Integration](b, models.CollectionIntegrations, "name"), models.CollectionIntegrations)

	return s
}

func open[T models.Record](b backend, name models.Collection, order string) Records[T] {
	if b.pool != nil {
		return NewTable[T](b.pool, name, order)
	}
	return NewMemoryTable[T](name, order)
}

// register wires the count and sample dispatch of a collection.
func register[T models.Record](s *Store, t Records[T], name models.Collection) Records[T] {
	s.counters[name] = t.Count
	s.samplers[name] = func(ctx context.Context, limit int) ([]map[string]any, error) {
		rows, err := t.Take(ctx, limit)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			obj, err := toObject(row)
			if err != nil {
				return nil, fmt.Errorf("encode %s row: %w", name, err)
			}
			items = append(items, obj)
		}
		return items, nil
	}
	return t
}

// registerComponents additionally exposes the collection to the catalog.
func registerComponents[T models.Componentizer](s *Store, t Records[T], name models.Collection) Records[T] {
	register(s, t, name)
	s.components[name] = func(ctx context.Context, filter Filter) ([]models.Component, error) {
		rows, err := t.Select(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]models.Component, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Component())
		}
		return out, nil
	}
	return t
}

// SelectComponents reads a component collection and normalizes its rows.
func (s *Store) SelectComponents(ctx context.Context, collection models.Collection, filter Filter) ([]models.Component, error) {
	list, ok := s.components[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s is not a component collection", collection)
	}
	return list(ctx, filter)
}

// Count returns the number of rows of collection matching the filter.
func (s *Store) Count(ctx context.Context, collection models.Collection, filter Filter) (int, error) {
	count, ok := s.counters[collection]
	if !ok {
		return 0, fmt.Errorf("unknown collection %s", collection)
	}
	return count(ctx, filter)
}

// SampleItems returns at most limit rows of collection as JSON objects.
func (s *Store) SampleItems(ctx context.Context, collection models.Collection, limit int) ([]map[string]any, error) {
	sample, ok := s.samplers[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %s", collection)
	}
	return sample(ctx, limit)
}

// Ping checks the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}
