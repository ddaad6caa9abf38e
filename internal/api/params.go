package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"automation-console/backend/internal/records"
)

// pathParam binds a required path parameter.
func pathParam[T any](c echo.Context, name string) (T, error) {
	var out T
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &out, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return out, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return out, nil
}

// queryParam binds an optional query parameter, leaving def when absent.
func queryParam[T any](c echo.Context, name string, def T) (T, error) {
	var out *T
	if err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &out); err != nil {
		return def, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	if out == nil {
		return def, nil
	}
	return *out, nil
}

// confirmation turns the confirm query parameter into the delete
// confirmation callback.
func confirmation(c echo.Context) (records.Confirm, error) {
	confirm, err := queryParam(c, "confirm", false)
	if err != nil {
		return nil, err
	}
	return func() bool { return confirm }, nil
}

// bind decodes the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	return nil
}
