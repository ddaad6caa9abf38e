package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// recordRoutes serves the list/get/create/update/delete contract of one
// record editor.
type recordRoutes[T models.Record] struct {
	s      *Server
	editor *records.Editor[T]
	// scope restricts the editor to a parent, e.g. the rules of a chatbot.
	scope func(c echo.Context) (repository.Filter, error)
	// prepare adjusts a decoded draft before it is submitted.
	prepare func(c echo.Context, draft *T) error
	// view shapes records for responses.
	view func(T) T
}

func (r recordRoutes[T]) mount(g *echo.Group, path string) {
	g.GET(path, r.list)
	g.POST(path, r.create)
	g.GET(path+"/:id", r.get)
	g.PUT(path+"/:id", r.update)
	g.DELETE(path+"/:id", r.remove)
}

func (r recordRoutes[T]) scoped(c echo.Context) (*records.Editor[T], error) {
	ed := r.editor
	if r.scope != nil {
		filter, err := r.scope(c)
		if err != nil {
			return nil, err
		}
		ed = ed.Scoped(filter)
	}
	return ed, nil
}

func (r recordRoutes[T]) shape(items []T) []T {
	if items == nil {
		items = []T{}
	}
	if r.view == nil {
		return items
	}
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = r.view(item)
	}
	return out
}

func (r recordRoutes[T]) one(item T) T {
	if r.view == nil {
		return item
	}
	return r.view(item)
}

func (r recordRoutes[T]) list(c echo.Context) error {
	rec := r.s.recorder()
	ed, err := r.scoped(c)
	if err != nil {
		return err
	}
	items, err := ed.With(rec).List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, r.shape(items), rec)
}

func (r recordRoutes[T]) get(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	ed, err := r.scoped(c)
	if err != nil {
		return err
	}
	item, err := ed.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, r.one(*item), nil)
}

func (r recordRoutes[T]) create(c echo.Context) error {
	var draft T
	if err := bind(c, &draft); err != nil {
		return err
	}
	return r.submit(c, records.WithID(draft, ""), http.StatusCreated)
}

func (r recordRoutes[T]) update(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var draft T
	if err := bind(c, &draft); err != nil {
		return err
	}
	return r.submit(c, records.WithID(draft, id), http.StatusOK)
}

// itemsResponse is the body of a submit: the saved record and the
// re-fetched list.
type itemsResponse[T any] struct {
	Item  T   `json:"item"`
	Items []T `json:"items"`
}

func (r recordRoutes[T]) submit(c echo.Context, draft T, status int) error {
	rec := r.s.recorder()
	ed, err := r.scoped(c)
	if err != nil {
		return err
	}
	if r.prepare != nil {
		if err := r.prepare(c, &draft); err != nil {
			return err
		}
	}
	saved, items, err := ed.With(rec).Submit(c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return respond(c, status, itemsResponse[T]{Item: r.one(saved), Items: r.shape(items)}, rec)
}

func (r recordRoutes[T]) remove(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	confirm, err := confirmation(c)
	if err != nil {
		return err
	}
	rec := r.s.recorder()
	ed, err := r.scoped(c)
	if err != nil {
		return err
	}
	items, err := ed.With(rec).Delete(c.Request().Context(), id, confirm)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, r.shape(items), rec)
}

func (s *Server) registerRecords(g *echo.Group) {
	recordRoutes[models.Machine]{s: s, editor: s.editors.cncMachines}.mount(g, "/cnc-machines")
	recordRoutes[models.Machine]{s: s, editor: s.editors.laserMachines}.mount(g, "/laser-machines")
	recordRoutes[models.Machine]{s: s, editor: s.editors.printers3D}.mount(g, "/printers-3d")
	recordRoutes[models.Machine]{s: s, editor: s.editors.roboticArms}.mount(g, "/robotic-arms")
	recordRoutes[models.Conveyor]{s: s, editor: s.editors.conveyors}.mount(g, "/conveyors")
	recordRoutes[models.HardwareDevice]{s: s, editor: s.editors.hardware}.mount(g, "/hardware")
	recordRoutes[models.AIModel]{s: s, editor: s.editors.aiModels}.mount(g, "/ai-models")
	recordRoutes[models.Integration]{s: s, editor: s.editors.integrations}.mount(g, "/integrations")
	recordRoutes[models.Endpoint]{s: s, editor: s.editors.endpoints, prepare: defaultEndpointStatus}.mount(g, "/endpoints")
	recordRoutes[models.Location]{s: s, editor: s.editors.locations, prepare: defaultLocationType}.mount(g, "/locations")
	recordRoutes[models.Client]{s: s, editor: s.editors.clients}.mount(g, "/clients")
	recordRoutes[models.Project]{s: s, editor: s.editors.projects}.mount(g, "/projects")
	recordRoutes[models.Payment]{s: s, editor: s.editors.payments}.mount(g, "/payments")
	recordRoutes[models.Employee]{s: s, editor: s.editors.employees}.mount(g, "/employees")

	recordRoutes[models.Chatbot]{
		s:       s,
		editor:  s.editors.chatbots,
		prepare: s.keepAPIKey,
		view:    models.Chatbot.Redacted,
	}.mount(g, "/chatbots")

	recordRoutes[models.ChatbotRule]{
		s:      s,
		editor: s.editors.chatbotRules,
		scope: func(c echo.Context) (repository.Filter, error) {
			chatbotID, err := pathParam[string](c, "chatbotId")
			if err != nil {
				return nil, err
			}
			return repository.Filter{"chatbot_id": chatbotID}, nil
		},
		prepare: func(c echo.Context, rule *models.ChatbotRule) error {
			chatbotID, err := pathParam[string](c, "chatbotId")
			rule.ChatbotID = chatbotID
			return err
		},
	}.mount(g, "/chatbots/:chatbotId/rules")
}

// keepAPIKey carries the stored key over when an update omits it, since
// responses never include it.
func (s *Server) keepAPIKey(c echo.Context, bot *models.Chatbot) error {
	if bot.ID == "" || bot.APIKey != "" {
		return nil
	}
	current, err := s.store.Chatbots.Get(c.Request().Context(), bot.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	bot.APIKey = current.APIKey
	return nil
}

func defaultEndpointStatus(_ echo.Context, ep *models.Endpoint) error {
	if ep.Status == "" {
		ep.Status = models.EndpointUnknown
	}
	return nil
}

func defaultLocationType(_ echo.Context, loc *models.Location) error {
	if loc.Type == "" {
		loc.Type = models.DefaultLocationType
	}
	return nil
}
