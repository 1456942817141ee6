package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// Response maps err to a status code and body.
func Response(err error) (int, Body) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind.Status(), Body{Error: ae.Message, Details: ae.Details}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusMethodNotAllowed:
			return Response(MethodNotAllowed())
		case http.StatusNotFound:
			return he.Code, Body{Error: "Not found"}
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
		return he.Code, Body{Error: msg}
	}

	return http.StatusInternalServerError, Body{Error: err.Error()}
}

// HTTPErrorHandler replaces echo's default handler so that every failure,
// including router-level 404/405, is rendered as {"error": "..."}.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := Response(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("kind", KindOf(err).String()).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

// StatusOf returns the status err will be rendered with.
func StatusOf(err error) int {
	status, _ := Response(err)
	return status
}
