package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"automation-console/backend/internal/catalog"
	"automation-console/backend/internal/config"
	"automation-console/backend/internal/locations"
	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/internal/workflows"
	"automation-console/backend/pkg/models"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type fixtureNode struct {
	ID            string  `yaml:"id"`
	Type          string  `yaml:"type"`
	ComponentType string  `yaml:"component_type"`
	Label         string  `yaml:"label"`
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
}

type fixtureWorkflow struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	TriggerType string        `yaml:"trigger_type"`
	Schedule    string        `yaml:"schedule"`
	Active      bool          `yaml:"active"`
	Nodes       []fixtureNode `yaml:"nodes"`
	Edges       [][2]string   `yaml:"edges"`
}

type fixtures struct {
	Workflows []fixtureWorkflow `yaml:"workflows"`
	Conveyors []struct {
		Name      string  `yaml:"name"`
		Speed     float64 `yaml:"speed"`
		Direction string  `yaml:"direction"`
		Status    string  `yaml:"status"`
		LengthM   float64 `yaml:"length_m"`
	} `yaml:"conveyors"`
	Endpoints []struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"endpoints"`
}

// graph turns the fixture nodes and edges into a stored graph.
func (w fixtureWorkflow) graph() models.WorkflowGraph {
	g := models.WorkflowGraph{Nodes: []models.WorkflowNode{}, Edges: []models.WorkflowEdge{}}
	for _, n := range w.Nodes {
		componentType := n.ComponentType
		if componentType == "" {
			componentType = models.ManualComponent
		}
		g.Nodes = append(g.Nodes, models.WorkflowNode{
			ID:            n.ID,
			NodeType:      models.NodeType(n.Type),
			ComponentType: componentType,
			Position:      models.Position{X: n.X, Y: n.Y},
			Data:          models.NodeData{Label: n.Label},
		})
	}
	for _, e := range w.Edges {
		g.Edges = append(g.Edges, models.WorkflowEdge{
			ID:       fmt.Sprintf("e-%s-%s", e[0], e[1]),
			Source:   e[0],
			Target:   e[1],
			Animated: true,
		})
	}
	return g
}

type app struct {
	envFile string
	cfg     *config.Config
	logger  *logging.Logger
	store   *repository.Store
	close   func()
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.DB.Driver == "memory" {
		a.logger.Warn("seeding the memory driver; nothing will outlive this process")
	}
	a.store, a.close, err = repository.Open(cmd.Context(), cfg.DB.Driver, cfg.DSN(), cfg.DB.Migrate)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	return nil
}

func (a *app) shutdown(*cobra.Command, []string) {
	if a.close != nil {
		a.close()
	}
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "seed",
		Short:         "Load demo data into the automation console store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", "", "Path to .env file")

	root.AddCommand(&cobra.Command{
		Use:               "demo",
		Short:             "Seed demo workflows, conveyors and endpoints; existing names are skipped",
		PersistentPreRunE: a.open,
		PostRun:           a.shutdown,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.seedDemo(cmd.Context())
		},
	})

	locationsCmd := &cobra.Command{
		Use:               "locations",
		Short:             "Import or export the locations dataset as CSV",
		PersistentPreRunE: a.open,
		PersistentPostRun: a.shutdown,
	}
	locationsCmd.AddCommand(
		&cobra.Command{
			Use:   "import FILE",
			Short: "Import locations from a CSV file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				res, err := locations.NewService(a.store.Locations, a.logger).Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				for _, re := range res.Errors {
					a.logger.Warn("row rejected", "line", re.Line, "error", re.Message)
				}
				a.logger.Info("Locations imported", "imported", res.Imported, "rejected", len(res.Errors))
				return nil
			},
		},
		&cobra.Command{
			Use:   "export [FILE]",
			Short: "Export locations as CSV to FILE or stdout",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var w io.Writer = cmd.OutOrStdout()
				if len(args) == 1 {
					f, err := os.Create(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return locations.NewService(a.store.Locations, a.logger).Export(cmd.Context(), w)
			},
		},
	)
	root.AddCommand(locationsCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) seedDemo(ctx context.Context) error {
	var fx fixtures
	if err := yaml.Unmarshal(fixturesYAML, &fx); err != nil {
		return fmt.Errorf("failed to parse fixtures: %w", err)
	}

	svc := workflows.NewService(a.store.Workflows, catalog.New(a.store, nil), a.logger)
	existing, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list existing workflows: %w", err)
	}
	seen := make(map[string]bool)
	for _, w := range existing {
		seen[w.Name] = true
	}

	for _, fw := range fx.Workflows {
		if seen[fw.Name] {
			a.logger.Info("Skipping existing workflow", "name", fw.Name)
			continue
		}
		draft := workflows.Draft{Name: fw.Name, Description: fw.Description, TriggerType: models.TriggerType(fw.TriggerType)}
		if fw.Schedule != "" {
			draft.Schedule = &fw.Schedule
		}
		wf, err := svc.Create(ctx, draft)
		if err != nil {
			return fmt.Errorf("failed to create workflow %s: %w", fw.Name, err)
		}
		if _, err := svc.SaveGraph(ctx, wf.ID, fw.graph()); err != nil {
			return fmt.Errorf("failed to save graph of %s: %w", fw.Name, err)
		}
		if fw.Active {
			if _, err := svc.SetActive(ctx, wf.ID, true); err != nil {
				return fmt.Errorf("failed to activate %s: %w", fw.Name, err)
			}
		}
		a.logger.Info("Seeded workflow", "name", fw.Name, "id", wf.ID)
	}

	conveyors := records.NewEditor(a.store.Conveyors, "conveyor", a.logger)
	for _, c := range fx.Conveyors {
		conv := models.Conveyor{
			Name:      c.Name,
			Speed:     c.Speed,
			Direction: models.ConveyorDirection(c.Direction),
			Status:    models.ConveyorStatus(c.Status),
			LengthM:   c.LengthM,
		}
		if err := seedOnce(ctx, conveyors, conv, func(x models.Conveyor) string { return x.Name }); err != nil {
			return err
		}
	}

	eps := records.NewEditor(a.store.Endpoints, "endpoint", a.logger)
	for _, ep := range fx.Endpoints {
		rec := models.Endpoint{Name: ep.Name, URL: ep.URL, Status: models.EndpointUnknown}
		if err := seedOnce(ctx, eps, rec, func(x models.Endpoint) string { return x.Name }); err != nil {
			return err
		}
	}

	a.logger.Info("Seeding complete!")
	return nil
}

// seedOnce submits rec unless a record with the same name exists.
func seedOnce[T models.Record](ctx context.Context, ed *records.Editor[T], rec T, name func(T) string) error {
	items, err := ed.List(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if name(it) == name(rec) {
			return nil
		}
	}
	if _, _, err := ed.Submit(ctx, rec); err != nil {
		return fmt.Errorf("failed to seed %s: %w", name(rec), err)
	}
	return nil
}
