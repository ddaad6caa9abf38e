// Package api contains the HTTP handlers of the automation console.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"automation-console/backend/internal/auth"
	"automation-console/backend/internal/catalog"
	"automation-console/backend/internal/dashboard"
	"automation-console/backend/internal/endpoints"
	"automation-console/backend/internal/functions"
	"automation-console/backend/internal/locations"
	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/metrics"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/internal/services"
	"automation-console/backend/internal/workflows"
	"automation-console/backend/pkg/models"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Deps are the collaborators of the API server.
type Deps struct {
	Store     *repository.Store
	Sync      *services.SyncService
	Endpoints *endpoints.Monitor
	Logger    *logging.Logger
}

// Server holds the services behind the REST API.
type Server struct {
	store     *repository.Store
	catalog   *catalog.Catalog
	workflows *workflows.Service
	functions *functions.Service
	endpoints *endpoints.Monitor
	dashboard *dashboard.Service
	locations *locations.Service
	logger    *logging.Logger
	reporter  notify.Reporter
	editors   editors
}

type editors struct {
	cncMachines   *records.Editor[models.Machine]
	laserMachines *records.Editor[models.Machine]
	printers3D    *records.Editor[models.Machine]
	roboticArms   *records.Editor[models.Machine]
	conveyors     *records.Editor[models.Conveyor]
	hardware      *records.Editor[models.HardwareDevice]
	chatbots      *records.Editor[models.Chatbot]
	chatbotRules  *records.Editor[models.ChatbotRule]
	aiModels      *records.Editor[models.AIModel]
	integrations  *records.Editor[models.Integration]
	endpoints     *records.Editor[models.Endpoint]
	locations     *records.Editor[models.Location]
	clients       *records.Editor[models.Client]
	projects      *records.Editor[models.Project]
	payments      *records.Editor[models.Payment]
	employees     *records.Editor[models.Employee]
}

// NewServer creates a new Server.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	reporter := notify.NewLogReporter(logger)
	store := d.Store
	cat := catalog.New(store, reporter)

	var chatbotHooks []records.Option[models.Chatbot]
	var aiModelHooks []records.Option[models.AIModel]
	if d.Sync != nil {
		chatbotHooks = append(chatbotHooks, records.OnSaved(d.Sync.SyncChatbot))
		aiModelHooks = append(aiModelHooks, records.OnSaved(d.Sync.SyncAIModel))
	}

	monitor := d.Endpoints
	if monitor == nil {
		monitor = endpoints.NewMonitor(store.Endpoints, 10*time.Second, logger)
	}

	return &Server{
		store:     store,
		catalog:   cat,
		workflows: workflows.NewService(store.Workflows, cat, logger),
		functions: functions.NewService(functions.TablesOf(store), logger),
		endpoints: monitor,
		dashboard: dashboard.NewService(store, store.Workflows, logger),
		locations: locations.NewService(store.Locations, logger),
		logger:    logger,
		reporter:  reporter,
		editors: editors{
			cncMachines:   records.NewEditor(store.CNCMachines, "CNC machine", logger),
			laserMachines: records.NewEditor(store.LaserMachines, "laser machine", logger),
			printers3D:    records.NewEditor(store.Printers3D, "3D printer", logger),
			roboticArms:   records.NewEditor(store.RoboticArms, "robotic arm", logger),
			conveyors:     records.NewEditor(store.Conveyors, "conveyor", logger),
			hardware:      records.NewEditor(store.Hardware, "hardware device", logger),
			chatbots:      records.NewEditor(store.Chatbots, "chatbot", logger, chatbotHooks...),
			chatbotRules:  records.NewEditor(store.ChatbotRules, "chatbot rule", logger),
			aiModels:      records.NewEditor(store.AIModels, "AI model", logger, aiModelHooks...),
			integrations:  records.NewEditor(store.Integrations, "integration", logger),
			endpoints:     records.NewEditor(store.Endpoints, "endpoint", logger),
			locations:     records.NewEditor(store.Locations, "location", logger),
			clients:       records.NewEditor(store.Clients, "client", logger),
			projects:      records.NewEditor(store.Projects, "project", logger),
			payments:      records.NewEditor(store.Payments, "payment", logger),
			employees:     records.NewEditor(store.Employees, "employee", logger),
		},
	}
}

// Envelope wraps every successful response together with the notifications
// raised while serving it.
type Envelope struct {
	Data    any             `json:"data"`
	Notices []notify.Notice `json:"notices"`
}

// recorder starts collecting the notifications of one request.
func (s *Server) recorder() *notify.Recorder {
	return notify.NewRecorder(s.reporter)
}

func respond(c echo.Context, status int, data any, rec *notify.Recorder) error {
	notices := []notify.Notice{}
	if rec != nil {
		notices = rec.Notices()
	}
	return c.JSON(status, Envelope{Data: data, Notices: notices})
}

// Register mounts the REST API on g, normally the /api/v1 group.
func (s *Server) Register(g *echo.Group) {
	s.registerRecords(g)
	s.registerWorkflows(g)
	s.registerFunctions(g)
	s.registerComponents(g)
	s.registerOperations(g)
}

// RequireWriteScope rejects mutating requests from callers without the
// console write scope. It runs after auth.RequireAuth.
func RequireWriteScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			p, ok := auth.PrincipalFrom(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}
			if !p.HasScope(auth.ScopeConsoleWrite) {
				return echo.NewHTTPError(http.StatusForbidden, "missing scope "+auth.ScopeConsoleWrite)
			}
			return next(c)
		}
	}
}

// RequestMetrics records the duration of every request by route.
func RequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			metrics.ObserveHTTP(c.Request().Method, c.Path(), status, start)
			return err
		}
	}
}
