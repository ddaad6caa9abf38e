package api

import (
	"context"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"automation-console/backend/internal/functions"
	"automation-console/backend/pkg/models"
)

func (s *Server) registerFunctions(g *echo.Group) {
	g.GET("/functions", s.ListFunctions)
	g.POST("/functions", s.CreateFunction)
	g.GET("/functions/:id", s.GetFunction)
	g.PUT("/functions/:id", s.UpdateFunction)
	g.DELETE("/functions/:id", s.DeleteFunction)
	g.POST("/functions/:id/lock", s.LockFunction)
	g.POST("/functions/:id/unlock", s.UnlockFunction)
	g.PUT("/functions/:id/error-handling", s.SaveErrorHandling)
	g.GET("/functions/:id/mapping-candidates", s.MappingCandidates)
	g.GET("/functions/:id/mapping-issues", s.MappingIssues)

	childRoutes[models.FunctionInput]{
		s:    s,
		save: (*functions.Service).SaveInput,
		del:  (*functions.Service).DeleteInput,
		place: func(in *models.FunctionInput, functionID, id string) {
			in.FunctionID, in.ID = functionID, id
		},
	}.mount(g, "/functions/:id/inputs")

	childRoutes[models.FunctionOutput]{
		s:    s,
		save: (*functions.Service).SaveOutput,
		del:  (*functions.Service).DeleteOutput,
		place: func(out *models.FunctionOutput, functionID, id string) {
			out.FunctionID, out.ID = functionID, id
		},
	}.mount(g, "/functions/:id/outputs")

	childRoutes[models.FunctionLogicStep]{
		s:    s,
		save: (*functions.Service).SaveStep,
		del:  (*functions.Service).DeleteStep,
		place: func(st *models.FunctionLogicStep, functionID, id string) {
			st.FunctionID, st.ID = functionID, id
		},
	}.mount(g, "/functions/:id/steps")
}

// ListFunctions handles GET /functions
func (s *Server) ListFunctions(c echo.Context) error {
	rec := s.recorder()
	defs, err := s.functions.With(rec).List(c.Request().Context())
	if err != nil {
		return err
	}
	if defs == nil {
		defs = []models.FunctionDefinition{}
	}
	return respond(c, http.StatusOK, defs, rec)
}

// CreateFunction handles POST /functions
func (s *Server) CreateFunction(c echo.Context) error {
	var def models.FunctionDefinition
	if err := bind(c, &def); err != nil {
		return err
	}
	rec := s.recorder()
	created, err := s.functions.With(rec).Create(c.Request().Context(), def)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, created, rec)
}

// GetFunction handles GET /functions/:id
func (s *Server) GetFunction(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	d, err := s.functions.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, d, nil)
}

// UpdateFunction handles PUT /functions/:id
func (s *Server) UpdateFunction(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var def models.FunctionDefinition
	if err := bind(c, &def); err != nil {
		return err
	}
	def.ID = id
	rec := s.recorder()
	updated, err := s.functions.With(rec).Update(c.Request().Context(), def)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, rec)
}

// DeleteFunction handles DELETE /functions/:id?confirm=true
func (s *Server) DeleteFunction(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	confirm, err := confirmation(c)
	if err != nil {
		return err
	}
	rec := s.recorder()
	if err := s.functions.With(rec).Delete(c.Request().Context(), id, confirm); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, rec)
}

// LockFunction handles POST /functions/:id/lock
func (s *Server) LockFunction(c echo.Context) error {
	return s.toggleLock(c, (*functions.Service).Lock)
}

// UnlockFunction handles POST /functions/:id/unlock
func (s *Server) UnlockFunction(c echo.Context) error {
	return s.toggleLock(c, (*functions.Service).Unlock)
}

func (s *Server) toggleLock(c echo.Context, fn func(*functions.Service, context.Context, string) (*models.FunctionDefinition, error)) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	rec := s.recorder()
	def, err := fn(s.functions.With(rec), c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, def, rec)
}

// SaveErrorHandling handles PUT /functions/:id/error-handling
func (s *Server) SaveErrorHandling(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var eh models.FunctionErrorHandling
	if err := bind(c, &eh); err != nil {
		return err
	}
	eh.FunctionID = id
	rec := s.recorder()
	saved, err := s.functions.With(rec).SaveErrorHandling(c.Request().Context(), eh)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, saved, rec)
}

// MappingCandidates handles GET /functions/:id/mapping-candidates?position=N
func (s *Server) MappingCandidates(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	// Without a position every step is a candidate.
	position, err := queryParam(c, "position", math.MaxInt)
	if err != nil {
		return err
	}
	cands, err := s.functions.MappingCandidates(c.Request().Context(), id, position)
	if err != nil {
		return err
	}
	if cands == nil {
		cands = []functions.Candidate{}
	}
	return respond(c, http.StatusOK, cands, nil)
}

// MappingIssues handles GET /functions/:id/mapping-issues
func (s *Server) MappingIssues(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	issues, err := s.functions.MappingIssues(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if issues == nil {
		issues = []functions.Issue{}
	}
	return respond(c, http.StatusOK, issues, nil)
}

// childRoutes serves the inputs, outputs or steps of one function.
type childRoutes[T any] struct {
	s     *Server
	save  func(*functions.Service, context.Context, T) (*T, error)
	del   func(*functions.Service, context.Context, string, string) error
	place func(rec *T, functionID, id string)
}

func (r childRoutes[T]) mount(g *echo.Group, path string) {
	g.POST(path, r.create)
	g.PUT(path+"/:childId", r.update)
	g.DELETE(path+"/:childId", r.remove)
}

func (r childRoutes[T]) create(c echo.Context) error {
	return r.submit(c, "", http.StatusCreated)
}

func (r childRoutes[T]) update(c echo.Context) error {
	childID, err := pathParam[string](c, "childId")
	if err != nil {
		return err
	}
	return r.submit(c, childID, http.StatusOK)
}

func (r childRoutes[T]) submit(c echo.Context, childID string, status int) error {
	functionID, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var draft T
	if err := bind(c, &draft); err != nil {
		return err
	}
	r.place(&draft, functionID, childID)
	rec := r.s.recorder()
	saved, err := r.save(r.s.functions.With(rec), c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return respond(c, status, saved, rec)
}

func (r childRoutes[T]) remove(c echo.Context) error {
	functionID, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	childID, err := pathParam[string](c, "childId")
	if err != nil {
		return err
	}
	rec := r.s.recorder()
	if err := r.del(r.s.functions.With(rec), c.Request().Context(), functionID, childID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, rec)
}
