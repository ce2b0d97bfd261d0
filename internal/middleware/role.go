package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// RequireRole answers 403 unless JWTAuth put one of roles on the context.
// Mount it after JWTAuth; on its own every caller is a guest and refused.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role := Role(c); !slices.Contains(roles, role) {
				slog.DebugContext(c.Request().Context(), "role refused",
					"role", role, "want", roles, "route", c.Path())
				return c.JSON(http.StatusForbidden, echo.Map{"error": "acceso denegado"})
			}
			return next(c)
		}
	}
}
