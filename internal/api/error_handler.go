package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inventario/catalog-api/internal/api/handler"
	"github.com/inventario/catalog-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//     Partial cascades are logged by the coordinator, not here.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorBody) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorBody{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handler.ErrorBody{Error: ve.Error(), Field: ve.Field}
	}

	// A cascade that stopped after committing some steps needs an operator.
	// The coordinator has already logged it.
	var ce *domain.CascadeError
	if errors.As(err, &ce) {
		return http.StatusInternalServerError, handler.ErrorBody{
			Error:          "cascade partially applied; manual repair required",
			Partial:        true,
			FailedStep:     ce.Step,
			CompletedSteps: ce.Completed,
		}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, handler.ErrorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusBadRequest, handler.ErrorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrCascadeInProgress):
		return http.StatusConflict, handler.ErrorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.ErrorBody{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, handler.ErrorBody{Error: "access forbidden"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorBody{Error: "internal server error"}
}
