package http

import (
	"time"

	xutil "SalesPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// QueryInt reads an integer query parameter or returns def.
func QueryInt(c echo.Context, name string, def int) int {
	return xutil.ParseIntDefault(c.QueryParam(name), def)
}

// QueryDate reads an optional YYYY-MM-DD query parameter. A missing value
// yields (nil, nil); a malformed one yields a 400 AppError.
func QueryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, ok := xutil.ParseDate(raw)
	if !ok {
		return nil, NewAppError("ERR_INVALID_DATE", name, name+" must be YYYY-MM-DD", 400)
	}
	return &t, nil
}
