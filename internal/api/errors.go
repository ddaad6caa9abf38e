package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"automation-console/backend/internal/designer"
	"automation-console/backend/internal/functions"
	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/internal/workflows"
	"automation-console/backend/pkg/models"
)

// problemFor maps an error to RFC 7807 Problem Details.
func problemFor(err error) models.ProblemDetails {
	var he *echo.HTTPError
	var verrs models.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		return models.ProblemDetails{Type: "about:blank", Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: "one or more fields are invalid", Errors: verrs}
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, workflows.ErrComponentNotFound):
		return problem(http.StatusNotFound, "Not Found", err)
	case errors.Is(err, functions.ErrFunctionLocked):
		return problem(http.StatusLocked, "Function Locked", err)
	case errors.Is(err, records.ErrNotConfirmed):
		return problem(http.StatusPreconditionRequired, "Confirmation Required", errors.New("repeat the request with confirm=true"))
	case errors.Is(err, designer.ErrNoHandle), errors.Is(err, designer.ErrUnknownNode), errors.Is(err, designer.ErrInvalidNodeType):
		return problem(http.StatusUnprocessableEntity, "Invalid Graph Operation", err)
	case errors.As(err, &he):
		detail := http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
		return models.ProblemDetails{Type: "about:blank", Title: http.StatusText(he.Code), Status: he.Code, Detail: detail}
	}
	return models.ProblemDetails{Type: "about:blank", Title: "Internal Server Error", Status: http.StatusInternalServerError, Detail: "the request could not be completed"}
}

func problem(status int, title string, err error) models.ProblemDetails {
	return models.ProblemDetails{Type: "about:blank", Title: title, Status: status, Detail: err.Error()}
}

// ErrorHandler renders every handler error as Problem Details. Server-side
// failures are logged once here.
func ErrorHandler(logger *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		p := problemFor(err)
		p.Instance = c.Request().URL.Path
		if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
			p.TraceID = sc.TraceID().String()
		}
		if p.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", p.Instance, "error", err)
		}
		writeError(c, p)
	}
}

// writeError writes an RFC 7807 Problem Details JSON error response
func writeError(c echo.Context, p models.ProblemDetails) {
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(p.Status)
		return
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	_ = c.JSON(p.Status, p)
}
