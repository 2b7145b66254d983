package middleware

import "github.com/labstack/echo/v4"

// Allower decides whether one more request for key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests whose client key is over budget. Requests to paths in
// skip (health, metrics) are never limited.
func RateLimit(a Allower, reject func(c echo.Context) error, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skipped[c.Path()]; ok {
				return next(c)
			}
			if !a.Allow(c.RealIP()) {
				return reject(c)
			}
			return next(c)
		}
	}
}
