package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
	"github.com/cosmoblog/cosmoblog/internal/response"
)

// errorSink is the single translation point from any stage failure to a
// response. Production responses carry only the taxonomy message; causes
// and stack detail stay in the logs.
func errorSink(isProduction bool, log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Something went wrong!"

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Status
			message = ae.Message
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			if !isProduction {
				message = err.Error()
			} else {
				message = "Something went wrong!"
			}
		}

		if writeErr := response.Error(c, status, message); writeErr != nil {
			log.Error().Err(writeErr).Msg("writing error response failed")
		}
	}
}
