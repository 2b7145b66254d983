package middleware

import (
	"fmt"
	"runtime/debug"

	applogger "MacroPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FaultRenderer writes the response for a recovered panic.
type FaultRenderer func(c echo.Context, err error) error

// Recover returns recovery middleware. A panic anywhere below it is logged with its
// stack and rendered through render, so callers always receive a well-formed body.
func Recover(l *applogger.Logger, render FaultRenderer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						applogger.String("path", c.Request().URL.Path),
						applogger.Error(perr),
						applogger.String("stack", string(debug.Stack())),
					)
					if c.Response().Committed {
						err = nil
						return
					}
					err = render(c, fmt.Errorf("unhandled fault: %w", perr))
				}
			}()
			return next(c)
		}
	}
}
