package payload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eessp/eessp/internal/platform/apperr"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Bind decodes the request body. Transport errors raised while reading (the
// body limit) pass through unchanged; anything else is "Invalid JSON data".
func Bind(c echo.Context) (Fields, error) {
	f, err := Decode(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, apperr.BadRequest("Invalid JSON data")
	}
	return f, nil
}

// Date returns the member as a YYYY-MM-DD string. Absent, null and blank
// values yield nil.
func (f Fields) Date(key string) (*string, error) {
	s, err := f.String(key)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return nil, fmt.Errorf("field %s must be a date in YYYY-MM-DD format", key)
	}
	return &s, nil
}
