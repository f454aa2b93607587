package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lumicare/lumi/internal/platform/apperr"
)

// ErrorHandler renders every error as {"detail": "..."}. Domain errors are
// mapped through apperr; the cause of a 5xx is logged, never returned.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = apperr.ToHTTP(err)
		}

		if he.Code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			cause := he.Internal
			if cause == nil {
				cause = err
			}
			logger.Error().Err(cause).
				Str("request_id", rid).
				Str("path", c.Path()).
				Msg("request failed")
		}

		detail := http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			detail = msg
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, map[string]string{"detail": detail})
		}
		if werr != nil {
			logger.Warn().Err(werr).Msg("write error response")
		}
	}
}
