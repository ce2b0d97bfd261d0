package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/logger"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

// JWTAuth validates the access token and stores the user id (uint64) and
// role under CtxUserID and CtxRole.  API clients send it as a Bearer
// header; browsers carry it in the cookie named cookieName.  The header
// wins when both are present.
func JWTAuth(secret, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" && cookieName != "" {
				if ck, err := c.Cookie(cookieName); err == nil {
					raw = strings.TrimSpace(ck.Value)
				}
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token requerido"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token inválido"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			req := c.Request()
			c.SetRequest(req.WithContext(logger.ContextWithUserID(req.Context(), claims.UserID)))
			return next(c)
		}
	}
}

func bearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// OptionalAuth is JWTAuth for public routes: a valid token sets the
// identity, a missing or bad one leaves the request anonymous.
func OptionalAuth(secret, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" && cookieName != "" {
				if ck, err := c.Cookie(cookieName); err == nil {
					raw = strings.TrimSpace(ck.Value)
				}
			}
			if raw != "" {
				if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
					c.Set(CtxUserID, claims.UserID)
					c.Set(CtxRole, claims.Role)
				}
			}
			return next(c)
		}
	}
}
