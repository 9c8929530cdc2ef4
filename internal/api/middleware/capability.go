package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// Require enforces one capability through the role registry. This is the
// single route-level authorization point; handlers and services never
// re-implement role checks. An unknown capability is a programmer error:
// it panics in development (strict) and denies in production.
func Require(registry *domain.Registry, capability domain.Capability, strict bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := registry.Authorize(IdentityFrom(c), capability)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, domain.ErrUnauthenticated):
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			case errors.Is(err, domain.ErrUnknownCapability):
				if strict {
					panic("unknown capability: " + string(capability))
				}
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			default:
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
		}
	}
}
