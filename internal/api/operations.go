package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"automation-console/backend/internal/conveyor"
	"automation-console/backend/internal/endpoints"
	"automation-console/backend/internal/notify"
	"automation-console/backend/pkg/models"
)

// maxPreviewFrames bounds the animation preview.
const maxPreviewFrames = 600

func (s *Server) registerOperations(g *echo.Group) {
	g.GET("/endpoints/status", s.EndpointStatus)
	g.POST("/endpoints/refresh", s.RefreshEndpoints)
	g.GET("/dashboard", s.GetDashboard)
	g.GET("/locations/export", s.ExportLocations)
	g.POST("/locations/import", s.ImportLocations)
	g.GET("/conveyors/:id/animation", s.ConveyorAnimation)
}

// endpointsView is the monitoring page: the endpoints and their stats.
type endpointsView struct {
	Endpoints []models.Endpoint `json:"endpoints"`
	Stats     endpoints.Stats   `json:"stats"`
}

// EndpointStatus handles GET /endpoints/status
func (s *Server) EndpointStatus(c echo.Context) error {
	eps, stats, err := s.endpoints.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, endpointsView{Endpoints: nonNil(eps), Stats: stats}, nil)
}

// RefreshEndpoints handles POST /endpoints/refresh
func (s *Server) RefreshEndpoints(c echo.Context) error {
	rec := s.recorder()
	eps, stats, err := s.endpoints.RefreshAll(c.Request().Context(), rec)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, endpointsView{Endpoints: nonNil(eps), Stats: stats}, rec)
}

// GetDashboard handles GET /dashboard
func (s *Server) GetDashboard(c echo.Context) error {
	rec := s.recorder()
	sum, err := s.dashboard.With(rec).Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sum, rec)
}

// ExportLocations handles GET /locations/export
func (s *Server) ExportLocations(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.locations.Export(c.Request().Context(), &buf); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="locations.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportLocations handles POST /locations/import. The CSV is read from the
// "file" form field when present, otherwise from the raw body.
func (s *Server) ImportLocations(c echo.Context) error {
	var src io.Reader = c.Request().Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid upload: "+err.Error())
		}
		defer f.Close()
		src = f
	}

	rec := s.recorder()
	res, err := s.locations.Import(c.Request().Context(), src)
	if err != nil {
		rec.Report(notify.LevelError, "Failed to import locations")
		// Without a result the file itself was unreadable.
		if res == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid CSV: "+err.Error())
		}
		return err
	}
	switch {
	case len(res.Errors) == 0:
		rec.Report(notify.LevelSuccess, fmt.Sprintf("Imported %d locations", res.Imported))
	case res.Imported == 0:
		rec.Report(notify.LevelError, fmt.Sprintf("No locations imported, %d rows rejected", len(res.Errors)))
	default:
		rec.Report(notify.LevelWarning, fmt.Sprintf("Imported %d locations, %d rows rejected", res.Imported, len(res.Errors)))
	}
	return respond(c, http.StatusOK, res, rec)
}

// animationView is a preview of the belt texture of a conveyor.
type animationView struct {
	ConveyorID string           `json:"conveyor_id"`
	Moving     bool             `json:"moving"`
	Frames     []conveyor.Frame `json:"frames"`
}

// ConveyorAnimation handles GET /conveyors/:id/animation?fps=60&frames=60
func (s *Server) ConveyorAnimation(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	fps, err := queryParam(c, "fps", 60.0)
	if err != nil {
		return err
	}
	n, err := queryParam(c, "frames", 60)
	if err != nil {
		return err
	}
	if fps <= 0 || n < 0 || n > maxPreviewFrames {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("fps must be positive and frames between 0 and %d", maxPreviewFrames))
	}

	conv, err := s.store.Conveyors.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	belt := conveyor.NewBelt(*conv)
	return respond(c, http.StatusOK, animationView{
		ConveyorID: conv.ID,
		Moving:     belt.Moving(),
		Frames:     belt.Preview(fps, n),
	}, nil)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
