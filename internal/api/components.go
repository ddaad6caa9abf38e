package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"automation-console/backend/internal/catalog"
)

func (s *Server) registerComponents(g *echo.Group) {
	g.GET("/components/types", s.ListComponentTypes)
	g.GET("/components/:type", s.ListComponents)
}

// ListComponentTypes handles GET /components/types
func (s *Server) ListComponentTypes(c echo.Context) error {
	return respond(c, http.StatusOK, catalog.Descriptors(), nil)
}

// ListComponents handles GET /components/:type?type=sub
//
// Unknown types list nothing rather than failing, so a node palette can ask
// for any key.
func (s *Server) ListComponents(c echo.Context) error {
	key, err := pathParam[string](c, "type")
	if err != nil {
		return err
	}
	sub, err := queryParam(c, "type", "")
	if err != nil {
		return err
	}
	rec := s.recorder()
	comps := s.catalog.ListWith(c.Request().Context(), key, sub, rec)
	return respond(c, http.StatusOK, comps, rec)
}
